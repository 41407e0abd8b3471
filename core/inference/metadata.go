package inference

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
)

// ModelScores holds the offline evaluation scores of one candidate model.
type ModelScores struct {
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Precision *float64 `json:"precision,omitempty"`
	Recall    *float64 `json:"recall,omitempty"`
	F1        *float64 `json:"f1,omitempty"`
	ROCAUC    *float64 `json:"roc_auc,omitempty"`
}

// Metadata is the evaluation report of the offline training job:
// {"best_model": "<name>", "<name>": {"accuracy": 0.87, ...}, ...}
type Metadata struct {
	BestModel string
	Models    map[string]ModelScores
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	best, ok := raw["best_model"]
	if !ok {
		return errors.New("best_model missing")
	}
	if err := json.Unmarshal(best, &m.BestModel); err != nil {
		return errors.Wrap(err, "decoding best_model")
	}
	delete(raw, "best_model")

	m.Models = make(map[string]ModelScores, len(raw))
	for name, msg := range raw {
		var scores ModelScores
		if err := json.Unmarshal(msg, &scores); err != nil {
			return errors.Wrapf(err, "decoding scores of %q", name)
		}
		m.Models[name] = scores
	}
	return nil
}

// Accuracy returns the recorded accuracy of the best model.
func (m *Metadata) Accuracy() (float64, bool) {
	scores, ok := m.Models[m.BestModel]
	if !ok || scores.Accuracy == nil {
		return 0, false
	}
	return *scores.Accuracy, true
}

// Candidates lists the evaluated model names, sorted.
func (m *Metadata) Candidates() []string {
	names := make([]string, 0, len(m.Models))
	for name := range m.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
