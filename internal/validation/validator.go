package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	apperrors "github.com/spec-kit/todo-service/pkg/util/errorutil"
)

// Rule declares one payload field. Schema is a JSON Schema fragment applied to
// the field's value. MaxBytes, when set, caps the UTF-8 length of a string
// value; JSON Schema lengths count code points.
type Rule struct {
	Name     string
	Required bool
	Schema   map[string]any
	MaxBytes int
}

type field struct {
	name     string
	required bool
	schema   *jsonschema.Schema
	maxBytes int
}

// Validator checks a JSON object payload against an ordered set of field rules.
// It is immutable after construction and safe for concurrent use.
type Validator struct {
	name   string
	fields []field
	known  map[string]struct{}
}

// New compiles rules into a Validator.
func New(name string, rules ...Rule) (*Validator, error) {
	v := &Validator{name: name, known: make(map[string]struct{}, len(rules))}
	for _, rule := range rules {
		schema, err := compileFragment(name+"/"+rule.Name, rule.Schema)
		if err != nil {
			return nil, fmt.Errorf("compile %s.%s: %w", name, rule.Name, err)
		}
		v.fields = append(v.fields, field{
			name:     rule.Name,
			required: rule.Required,
			schema:   schema,
			maxBytes: rule.MaxBytes,
		})
		v.known[rule.Name] = struct{}{}
	}
	return v, nil
}

func compileFragment(url string, fragment map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(fragment)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	resource := "mem://" + url + ".json"
	if err := compiler.AddResource(resource, bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return compiler.Compile(resource)
}

// Validate checks body and, only when every rule passes, decodes it into dst.
// The returned error carries the first violated constraint.
func (v *Validator) Validate(body []byte, dst any) error {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		return apperrors.NewValidationError(`"value" must be of type object`, nil)
	}

	for _, f := range v.fields {
		value, present := payload[f.name]
		if !present || value == nil {
			if f.required {
				return fieldError(f.name, "is required")
			}
			continue
		}
		if err := f.schema.Validate(value); err != nil {
			return fieldError(f.name, leafMessage(err))
		}
		if str, ok := value.(string); ok && f.maxBytes > 0 && len(str) > f.maxBytes {
			return fieldError(f.name, fmt.Sprintf("length must be less than or equal to %d bytes long", f.maxBytes))
		}
	}

	var unknown []string
	for key := range payload {
		if _, ok := v.known[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fieldError(unknown[0], "is not allowed")
	}

	if dst == nil {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func fieldError(name, message string) error {
	return apperrors.NewValidationError(fmt.Sprintf("%q %s", name, message), map[string]any{"field": name})
}

// leafMessage walks to the first leaf cause, which names the concrete
// constraint that failed.
func leafMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return strings.TrimSpace(ve.Message)
}
