package scenario

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// configSchema is the structural contract for scenario files. Range
// constraints live in Validate; the schema rejects unknown keys and wrong
// shapes before decoding.
const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "label": {"type": "string"},
    "n_agents": {"type": "integer", "minimum": 0},
    "n_steps": {"type": "integer", "minimum": 0},
    "dt": {"type": "number", "exclusiveMinimum": 0},
    "seed": {"type": "integer"},
    "pop_scale": {"type": "number", "exclusiveMinimum": 0},
    "births": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "enabled": {"type": "boolean"},
        "birth_rate": {"type": "number", "minimum": 0}
      }
    },
    "bg_deaths": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "enabled": {"type": "boolean"},
        "death_rate": {"type": "number", "minimum": 0, "maximum": 1}
      }
    },
    "networks": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["type"],
        "properties": {
          "type": {"enum": ["random"]},
          "n_contacts": {"type": "integer", "minimum": 1},
          "edge_beta": {"type": "number", "minimum": 0}
        }
      }
    },
    "diseases": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["type"],
        "properties": {
          "type": {"enum": ["sir", "sis"]},
          "beta": {"type": "number", "minimum": 0, "maximum": 1},
          "init_prev": {"type": "number", "minimum": 0, "maximum": 1},
          "dur_inf_mean": {"type": "number", "exclusiveMinimum": 0},
          "dur_inf_std": {"type": "number", "minimum": 0},
          "p_death": {"type": "number", "minimum": 0, "maximum": 1},
          "waning": {"type": "number", "minimum": 0},
          "imm_boost": {"type": "number", "minimum": 0}
        }
      }
    },
    "interventions": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["type", "disease"],
        "properties": {
          "type": {"enum": ["vaccine"]},
          "disease": {"type": "string"},
          "start_ti": {"type": "integer", "minimum": 0},
          "prob": {"type": "number", "minimum": 0, "maximum": 1},
          "efficacy": {"type": "number", "minimum": 0, "maximum": 1}
        }
      }
    },
    "analyzers": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["type", "disease"],
        "properties": {
          "type": {"enum": ["prevalence"]},
          "disease": {"type": "string"}
        }
      }
    }
  }
}`

var compiledSchema = sync.OnceValue(func() *jsonschema.Schema {
	return jsonschema.MustCompileString("scenario.schema.json", configSchema)
})

// validateSchema checks a raw scenario document against the schema. The
// document is round-tripped through JSON so YAML and JSON inputs validate
// with identical value types.
func validateSchema(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return compiledSchema().Validate(doc)
}
