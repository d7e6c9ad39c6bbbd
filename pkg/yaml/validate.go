package yaml

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Validator validates data against a JSON schema.
// Uses [github.com/santhosh-tekuri/jsonschema/v6].
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator creates a new [Validator] with the provided JSON schema data.
func NewValidator(url string, schemaData []byte) (*Validator, error) {
	var schema any

	err := json.Unmarshal(schemaData, &schema)
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()

	err = compiler.AddResource(url, schema)
	if err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	jss, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &Validator{schema: jss}, nil
}

func MustNewValidator(url string, schemaData []byte) *Validator {
	v, err := NewValidator(url, schemaData)
	if err != nil {
		panic(err)
	}

	return v
}

// Validate validates the given data against the schema. Validation failures
// are returned as an [*Error] carrying the YAML path of the most specific
// failing location.
func (s *Validator) Validate(data any) error {
	err := s.schema.Validate(data)
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return fmt.Errorf("schema validation: %w", err)
	}

	path, pathErr := buildYAMLPathFromError(validationErr)
	if pathErr != nil {
		return &Error{
			Err: fmt.Errorf("schema validation: %w", validationErr),
		}
	}

	return &Error{
		Err:  validationErr,
		Path: path,
	}
}

// buildYAMLPathFromError creates a [yaml.Path] from the provided
// [jsonschema.ValidationError].
func buildYAMLPathFromError(validationErr *jsonschema.ValidationError) (*yaml.Path, error) {
	location := findMostSpecificLocation(validationErr)

	pb := NewPathBuilder().Root()
	for _, seg := range location {
		if idx, err := strconv.Atoi(seg); err == nil {
			pb = pb.Index(uint(idx)) //nolint:gosec // G115: indices are non-negative.

			continue
		}

		pb = pb.Child(seg)
	}

	return pb.Build(), nil
}

// findMostSpecificLocation recursively searches through all causes to find
// the longest InstanceLocation.
func findMostSpecificLocation(validationErr *jsonschema.ValidationError) []string {
	location := validationErr.InstanceLocation
	for _, cause := range validationErr.Causes {
		if causeLocation := findMostSpecificLocation(cause); len(causeLocation) > len(location) {
			location = causeLocation
		}
	}

	return location
}
