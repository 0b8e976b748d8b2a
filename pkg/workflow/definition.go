package workflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dukex/stepwise/pkg/models"
)

// DecodeDefinition parses a raw stored definition. It checks only what resolution
// depends on: valid JSON, an object, a non-empty steps array of objects and a
// target name on every workflow step. Descriptive fields of any other shape are
// ignored.
func DecodeDefinition(name string, raw []byte) (*models.WorkflowDefinition, error) {
	if !json.Valid(raw) {
		return nil, newError(models.ErrorKindParseError, name,
			fmt.Sprintf("workflow %q is not valid JSON", name), nil)
	}

	var envelope map[string]json.RawMessage

	err := json.Unmarshal(raw, &envelope)
	if err != nil {
		return nil, invalid(name, "definition must be a JSON object")
	}

	stepsRaw, ok := envelope["steps"]
	if !ok || bytes.Equal(bytes.TrimSpace(stepsRaw), []byte("null")) {
		return nil, invalid(name, "definition has no \"steps\"")
	}

	var rawSteps []json.RawMessage

	err = json.Unmarshal(stepsRaw, &rawSteps)
	if err != nil {
		return nil, invalid(name, "\"steps\" must be an array")
	}

	if len(rawSteps) == 0 {
		return nil, invalid(name, "\"steps\" must not be empty")
	}

	definition := models.WorkflowDefinition{
		Steps: make([]models.StepSpec, 0, len(rawSteps)),
	}

	decodeOptional(envelope, "name", &definition.Name)
	decodeOptional(envelope, "description", &definition.Description)
	decodeOptional(envelope, "inputs", &definition.Inputs)
	decodeOptional(envelope, "outputs", &definition.Outputs)
	decodeOptional(envelope, "expectedOutputs", &definition.ExpectedOutputs)

	for i, rawStep := range rawSteps {
		step, err := decodeStep(rawStep)
		if err != nil {
			return nil, invalid(name, fmt.Sprintf("step %d is malformed: %v", i+1, err))
		}

		if step.Type == models.StepTypeWorkflow && step.Workflow == "" {
			return nil, invalid(name, fmt.Sprintf("step %d is a workflow step without a \"workflow\" name", i+1))
		}

		definition.Steps = append(definition.Steps, step)
	}

	return &definition, nil
}

// decodeStep keeps the raw object and reads the fields resolution and guidance use.
func decodeStep(raw json.RawMessage) (models.StepSpec, error) {
	var fields map[string]json.RawMessage

	err := json.Unmarshal(raw, &fields)
	if err != nil || fields == nil {
		return models.StepSpec{}, errors.New("step must be a JSON object")
	}

	step := models.StepSpec{Raw: raw}

	decodeOptional(fields, "type", &step.Type)
	decodeOptional(fields, "description", &step.Description)
	decodeOptional(fields, "template", &step.Template)
	decodeOptional(fields, "outputs", &step.Outputs)
	decodeOptional(fields, "expectedOutputs", &step.ExpectedOutputs)
	decodeOptional(fields, "hints", &step.Hints)
	decodeOptional(fields, "tool", &step.Tool)
	decodeOptional(fields, "inputs", &step.Inputs)
	decodeOptional(fields, "inputMapping", &step.InputMapping)
	decodeOptional(fields, "workflow", &step.Workflow)

	return step, nil
}

// decodeOptional fills dst from fields[key] when the value has the expected shape.
// Any other shape leaves dst at its zero value; schema validation reports it.
func decodeOptional(fields map[string]json.RawMessage, key string, dst any) {
	if raw, ok := fields[key]; ok {
		_ = json.Unmarshal(raw, dst)
	}
}

func invalid(name, reason string) *Error {
	return newError(models.ErrorKindInvalidDefinition, name,
		fmt.Sprintf("workflow %q is invalid: %s", name, reason), nil)
}
