package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

func GetSchemaFromConfig(config any) (string, error) {
	schema := jsonschema.Reflect(config)

	jsonSchemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}

// DecodeParams overlays a loosely typed parameter map onto out, which must be a
// pointer to a struct with yaml tags. Fields missing from params keep whatever value
// out already holds, so callers pre-fill out with defaults. Unknown keys are rejected.
func DecodeParams(params map[string]any, out any) error {
	if len(params) == 0 {
		return nil
	}

	data, err := yaml.Marshal(params)
	if err != nil {
		return err
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return nil
}

// ToParamMap converts a yaml-tagged struct into the generic map form used when
// parameters are reported alongside a result.
func ToParamMap(in any) (map[string]any, error) {
	data, err := yaml.Marshal(in)
	if err != nil {
		return nil, err
	}

	out := map[string]any{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}

	return out, nil
}
