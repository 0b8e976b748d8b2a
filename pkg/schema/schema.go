// Package schema checks the structure of workflow definitions before they are stored.
package schema

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// definitionSchema describes a stored workflow definition (JSON Schema draft-07).
const definitionSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["name", "steps"],
	"properties": {
		"name": {"type": "string", "pattern": "^[a-z0-9]+(-[a-z0-9]+)*$"},
		"description": {"type": "string"},
		"inputs": {"$ref": "#/definitions/fields"},
		"outputs": {"$ref": "#/definitions/fields"},
		"expectedOutputs": {"$ref": "#/definitions/fields"},
		"steps": {
			"type": "array",
			"minItems": 1,
			"items": {"$ref": "#/definitions/step"}
		}
	},
	"definitions": {
		"fields": {
			"oneOf": [
				{"type": "object", "additionalProperties": {"type": ["string", "object"]}},
				{"type": "array", "items": {"type": "string"}}
			]
		},
		"step": {
			"type": "object",
			"required": ["type"],
			"properties": {
				"type": {"enum": ["prompt", "mcp", "workflow"]},
				"description": {"type": "string"},
				"template": {"type": "string"},
				"hints": {"type": "string"},
				"outputs": {"$ref": "#/definitions/fields"},
				"expectedOutputs": {"$ref": "#/definitions/fields"},
				"tool": {"type": "string", "minLength": 1},
				"inputs": {"type": "object"},
				"inputMapping": {"type": "object"},
				"workflow": {"type": "string", "minLength": 1}
			},
			"not": {"required": ["tool", "workflow"]},
			"allOf": [
				{
					"if": {"properties": {"type": {"const": "prompt"}}},
					"then": {"required": ["template"]}
				},
				{
					"if": {"properties": {"type": {"const": "mcp"}}},
					"then": {"required": ["tool"]}
				},
				{
					"if": {"properties": {"type": {"const": "workflow"}}},
					"then": {"required": ["workflow"]}
				}
			]
		}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(definitionSchema)

// Validate checks raw against the definition schema and returns one message per
// problem found. The error is reserved for documents that cannot be read as JSON.
func Validate(raw []byte) ([]string, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to validate definition: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}

	return problems, nil
}
