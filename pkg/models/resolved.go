package models

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ResolvedStep is a StepSpec annotated with the workflow that contributed it.
type ResolvedStep struct {
	StepSpec

	SourceWorkflow    string `json:"sourceWorkflow"`
	ParentDescription string `json:"parentDescription,omitempty"`
}

// MarshalJSON emits the stored step object with its keys in stored order, then the
// provenance keys. Steps built in memory without Raw marshal from their fields.
func (s ResolvedStep) MarshalJSON() ([]byte, error) {
	if len(s.Raw) == 0 {
		type plain ResolvedStep

		return json.Marshal(plain(s))
	}

	dec := json.NewDecoder(bytes.NewReader(s.Raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("step must be a JSON object")
	}

	var buf bytes.Buffer

	buf.WriteByte('{')

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		key, _ := tok.(string)

		var value json.RawMessage

		err = dec.Decode(&value)
		if err != nil {
			return nil, err
		}

		if key == "sourceWorkflow" || key == "parentDescription" {
			continue
		}

		err = writeMember(&buf, key, value)
		if err != nil {
			return nil, err
		}
	}

	source, err := json.Marshal(s.SourceWorkflow)
	if err != nil {
		return nil, err
	}

	err = writeMember(&buf, "sourceWorkflow", source)
	if err != nil {
		return nil, err
	}

	if s.ParentDescription != "" {
		parent, err := json.Marshal(s.ParentDescription)
		if err != nil {
			return nil, err
		}

		err = writeMember(&buf, "parentDescription", parent)
		if err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, value []byte) error {
	if buf.Len() > 1 {
		buf.WriteByte(',')
	}

	name, err := json.Marshal(key)
	if err != nil {
		return err
	}

	buf.Write(name)
	buf.WriteByte(':')
	buf.Write(value)

	return nil
}

// ResolvedWorkflow is a workflow with every sub-workflow step expanded in place.
type ResolvedWorkflow struct {
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	Inputs          FieldSet       `json:"inputs,omitempty"`
	ExpectedOutputs FieldSet       `json:"expectedOutputs,omitempty"`
	FlattenedSteps  []ResolvedStep `json:"flattenedSteps"`
}

// TotalSteps returns the number of leaf steps.
func (w *ResolvedWorkflow) TotalSteps() int {
	return len(w.FlattenedSteps)
}
