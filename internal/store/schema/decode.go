package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/Jana-haikel/Task-manager/internal/store"
)

// DecodeTaskInput decodes a task payload. Anything that is not a single
// well-formed JSON object yields a MalformedInputError.
func DecodeTaskInput(raw []byte) (TaskInput, error) {
	var in TaskInput
	if err := decodeObject(raw, &in); err != nil {
		return TaskInput{}, err
	}
	return in, nil
}

// DecodeTodoInput decodes a todo payload.
func DecodeTodoInput(raw []byte) (TodoInput, error) {
	var in TodoInput
	if err := decodeObject(raw, &in); err != nil {
		return TodoInput{}, err
	}
	return in, nil
}

// DecodeSettingsPatch decodes a settings patch. An empty body is an empty patch.
func DecodeSettingsPatch(raw []byte) (Settings, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Settings{}, nil
	}
	patch := Settings{}
	if err := decodeObject(raw, &patch); err != nil {
		return nil, err
	}
	return patch, nil
}

func decodeObject(raw []byte, dst any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return &store.MalformedInputError{Err: errors.New("payload must be a JSON object")}
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if err := dec.Decode(dst); err != nil {
		return &store.MalformedInputError{Err: err}
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return &store.MalformedInputError{Err: errors.New("trailing content after JSON object")}
	}
	return nil
}
