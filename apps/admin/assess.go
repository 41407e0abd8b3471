package main

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

func (cli *commandLine) assess(studentID int, predictionOnly bool) error {
	svc := cli.newRiskService(cli.loadModel())
	ctx := context.Background()

	var (
		res interface{}
		err error
	)
	if predictionOnly {
		res, err = svc.GetGraduationPrediction(ctx, studentID)
	} else {
		res, err = svc.GetRiskAssessment(ctx, studentID)
	}
	if err != nil {
		return errors.Wrapf(err, "assessing student %d", studentID)
	}

	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
