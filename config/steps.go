package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultThreshold is the match cutoff used when a step omits one.
const DefaultThreshold = 0.8

// ErrInvalidSteps is wrapped by every step file validation failure.
var ErrInvalidSteps = errors.New("invalid step configuration")

// Action is what a step does once its template is located.
type Action string

const (
	ActionClick        Action = "click"
	ActionClickAndCopy Action = "copy"
)

func parseAction(s string) (Action, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "click":
		return ActionClick, true
	case "copy", "click_and_copy", "clickandcopy":
		return ActionClickAndCopy, true
	default:
		return "", false
	}
}

// Field names the record column a copy step fills.
type Field string

const (
	FieldNone             Field = ""
	FieldCustomerNickname Field = "customer_nickname"
	FieldMerchant         Field = "merchant"
	FieldOrderNumber      Field = "order_number"
)

func parseField(s string) (Field, bool) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldNone, FieldCustomerNickname, FieldMerchant, FieldOrderNumber:
		return f, true
	default:
		return "", false
	}
}

// Offset shifts the pointer target of a copy step relative to the match center.
type Offset struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// StepDescriptor is one validated pipeline step. Order within the loaded
// slice is execution order.
type StepDescriptor struct {
	Name         string
	TemplatePath string
	Threshold    float64
	Action       Action
	Offset       Offset
	Field        Field
}

// rawStep mirrors the on-disk schema; pointers distinguish absent from zero.
type rawStep struct {
	Name         string   `json:"name" yaml:"name"`
	TemplatePath string   `json:"template_path" yaml:"template_path"`
	Threshold    *float64 `json:"threshold" yaml:"threshold"`
	Action       string   `json:"action" yaml:"action"`
	Offset       *Offset  `json:"offset" yaml:"offset"`
	Field        string   `json:"field" yaml:"field"`
}

type rawStepFile struct {
	Steps []rawStep `yaml:"steps"`
}

// LoadSteps reads and validates an ordered step list. JSON files hold a
// top-level array; YAML files hold either an array or a "steps" key.
func LoadSteps(path string) ([]StepDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read steps %s: %w", path, err)
	}
	raw, err := decodeSteps(path, data)
	if err != nil {
		return nil, err
	}
	return validateSteps(raw)
}

func decodeSteps(path string, data []byte) ([]rawStep, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var list []rawStep
		if err := yaml.Unmarshal(data, &list); err == nil {
			return list, nil
		}
		var file rawStepFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidSteps, path, err)
		}
		return file.Steps, nil
	default:
		var list []rawStep
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&list); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidSteps, path, err)
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: parse %s: trailing data after step list", ErrInvalidSteps, path)
		}
		return list, nil
	}
}

// validateSteps applies defaults and rejects malformed entries.
func validateSteps(raw []rawStep) ([]StepDescriptor, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no steps defined", ErrInvalidSteps)
	}
	steps := make([]StepDescriptor, 0, len(raw))
	names := make(map[string]bool, len(raw))
	fields := make(map[Field]string)
	for i, r := range raw {
		n := i + 1
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: step %d: name cannot be empty", ErrInvalidSteps, n)
		}
		if names[name] {
			return nil, fmt.Errorf("%w: step %d (%s): duplicate name", ErrInvalidSteps, n, name)
		}
		names[name] = true
		if strings.TrimSpace(r.TemplatePath) == "" {
			return nil, fmt.Errorf("%w: step %d (%s): template_path cannot be empty", ErrInvalidSteps, n, name)
		}
		action, ok := parseAction(r.Action)
		if !ok {
			return nil, fmt.Errorf("%w: step %d (%s): unknown action %q", ErrInvalidSteps, n, name, r.Action)
		}
		threshold := DefaultThreshold
		if r.Threshold != nil {
			threshold = *r.Threshold
			if math.IsNaN(threshold) || threshold <= 0 || threshold > 1 {
				return nil, fmt.Errorf("%w: step %d (%s): threshold %g out of range (0,1]", ErrInvalidSteps, n, name, threshold)
			}
		}
		var offset Offset
		if r.Offset != nil {
			offset = *r.Offset
		}
		field, ok := parseField(r.Field)
		if !ok {
			return nil, fmt.Errorf("%w: step %d (%s): unknown field %q", ErrInvalidSteps, n, name, r.Field)
		}
		if field != FieldNone {
			if action != ActionClickAndCopy {
				return nil, fmt.Errorf("%w: step %d (%s): field %s requires the copy action", ErrInvalidSteps, n, name, field)
			}
			if prev, dup := fields[field]; dup {
				return nil, fmt.Errorf("%w: step %d (%s): field %s already filled by %s", ErrInvalidSteps, n, name, field, prev)
			}
			fields[field] = name
		}
		steps = append(steps, StepDescriptor{
			Name:         name,
			TemplatePath: filepath.FromSlash(strings.TrimSpace(r.TemplatePath)),
			Threshold:    threshold,
			Action:       action,
			Offset:       offset,
			Field:        field,
		})
	}
	return steps, nil
}

// StepFile is a step source backed by a file path. It re-reads the file on
// every call so edits apply to the next capture run.
type StepFile struct{ Path string }

// LoadSteps implements the orchestrator's step source.
func (f StepFile) LoadSteps() ([]StepDescriptor, error) { return LoadSteps(f.Path) }
