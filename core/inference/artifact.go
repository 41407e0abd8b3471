package inference

import (
	"bytes"
	"embed"
	"encoding/json"
	"os"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// SupportedSchema is the range of artifact schema versions this runtime understands.
const SupportedSchema = "^1.0"

const (
	schemaPreprocessor = "preprocessor.schema.json"
	schemaClassifier   = "classifier.schema.json"
	schemaEvaluation   = "evaluation.schema.json"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func compiledSchema(name string) (*jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		c := jsonschema.NewCompiler()
		names := []string{schemaPreprocessor, schemaClassifier, schemaEvaluation}
		for _, n := range names {
			data, err := schemaFS.ReadFile("schemas/" + n)
			if err != nil {
				schemasErr = errors.Wrapf(err, "reading schema %s", n)
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
			if err != nil {
				schemasErr = errors.Wrapf(err, "parsing schema %s", n)
				return
			}
			if err = c.AddResource("schema://"+n, doc); err != nil {
				schemasErr = errors.Wrapf(err, "adding schema %s", n)
				return
			}
		}

		compiled := make(map[string]*jsonschema.Schema, len(names))
		for _, n := range names {
			sch, err := c.Compile("schema://" + n)
			if err != nil {
				schemasErr = errors.Wrapf(err, "compiling schema %s", n)
				return
			}
			compiled[n] = sch
		}
		schemas = compiled
	})
	if schemasErr != nil {
		return nil, schemasErr
	}
	return schemas[name], nil
}

// readArtifact reads a JSON artifact, validates it against its schema and decodes it into dst.
func readArtifact(path, schemaName string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading artifact")
	}

	sch, err := compiledSchema(schemaName)
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "parsing artifact")
	}
	if err = sch.Validate(inst); err != nil {
		return errors.Wrap(err, "validating artifact")
	}

	if err = json.Unmarshal(data, dst); err != nil {
		return errors.Wrap(err, "decoding artifact")
	}
	return nil
}

// checkSchemaVersion fails unless version satisfies SupportedSchema.
func checkSchemaVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return errors.Wrapf(err, "invalid schema_version %q", version)
	}
	c, err := semver.NewConstraint(SupportedSchema)
	if err != nil {
		return errors.Wrap(err, "parsing supported schema range")
	}
	if !c.Check(v) {
		return errors.Errorf("schema_version %s not supported (want %s)", v, SupportedSchema)
	}
	return nil
}

// LoadPreprocessor loads the fitted transform.
// columns lists the input columns the runtime produces; nil skips that check.
func LoadPreprocessor(path string, columns []string) (*Preprocessor, error) {
	var p Preprocessor
	if err := readArtifact(path, schemaPreprocessor, &p); err != nil {
		return nil, errors.Wrapf(err, "loading preprocessor %s", path)
	}
	if err := checkSchemaVersion(p.SchemaVersion); err != nil {
		return nil, errors.Wrapf(err, "loading preprocessor %s", path)
	}
	if err := p.check(columns); err != nil {
		return nil, errors.Wrapf(err, "loading preprocessor %s", path)
	}
	return &p, nil
}

func LoadClassifier(path string) (*Classifier, error) {
	var c Classifier
	if err := readArtifact(path, schemaClassifier, &c); err != nil {
		return nil, errors.Wrapf(err, "loading classifier %s", path)
	}
	if err := checkSchemaVersion(c.SchemaVersion); err != nil {
		return nil, errors.Wrapf(err, "loading classifier %s", path)
	}
	if err := c.check(); err != nil {
		return nil, errors.Wrapf(err, "loading classifier %s", path)
	}
	return &c, nil
}

func LoadMetadata(path string) (*Metadata, error) {
	var m Metadata
	if err := readArtifact(path, schemaEvaluation, &m); err != nil {
		return nil, errors.Wrapf(err, "loading evaluation metadata %s", path)
	}
	return &m, nil
}
