package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var errNoModel = errors.New("no model loaded")

func (cli *commandLine) checkModel() error {
	mc := cli.loadModel()
	if !mc.Loaded() {
		fmt.Fprintln(cli.out, "mode:     NO_MODEL")
		fmt.Fprintf(cli.out, "error:    %v\n", mc.LoadError())
		return errNoModel
	}

	fmt.Fprintln(cli.out, "mode:     MODEL")
	fmt.Fprintf(cli.out, "model:    %s\n", mc.ModelName())
	fmt.Fprintf(cli.out, "schema:   %s\n", mc.SchemaVersion())
	fmt.Fprintf(cli.out, "models:   %s\n", strings.Join(mc.Candidates(), ", "))
	if acc, ok := mc.Accuracy(); ok {
		fmt.Fprintf(cli.out, "accuracy: %.2f\n", acc)
	} else {
		fmt.Fprintln(cli.out, "accuracy: n/a")
	}
	fmt.Fprintf(cli.out, "cached:   %d\n", mc.CacheSize())
	return nil
}
