// Package schema validates raw API payloads against JSON Schemas before they
// are materialized.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ReportSchema describes the completed Report.GetReport payload.
const ReportSchema = `{
  "type": "object",
  "required": ["status", "waitSeconds", "runSeconds", "report"],
  "properties": {
    "status": {"type": "string"},
    "waitSeconds": {"type": ["string", "number"]},
    "runSeconds": {"type": ["string", "number"]},
    "report": {
      "type": "object",
      "required": ["metrics", "data"],
      "properties": {
        "metrics": {
          "type": "array",
          "items": {"type": "object", "required": ["id"]}
        },
        "elements": {"type": "array"},
        "segment_id": {"type": ["string", "null"]},
        "data": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {"counts": {"type": "array"}}
          }
        }
      }
    }
  }
}`

// ValidationErrors represents a collection of validation errors
type ValidationErrors []error

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, err := range ve {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Validator checks JSON documents against one compiled schema.
type Validator struct {
	schema *jsonschema.Schema
}

// Compile compiles a schema document.
func Compile(name, schemaStr string) (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	if err := compiler.AddResource(name, strings.NewReader(schemaStr)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// Validate returns nil when jsonStr conforms, ValidationErrors listing every
// violation otherwise.
func (v *Validator) Validate(jsonStr string) error {
	var jsonData interface{}
	if err := json.Unmarshal([]byte(jsonStr), &jsonData); err != nil {
		return ValidationErrors{fmt.Errorf("invalid JSON: %w", err)}
	}

	err := v.schema.Validate(jsonData)
	if err == nil {
		return nil
	}

	if validationErr, ok := err.(*jsonschema.ValidationError); ok {
		return extractValidationErrors(validationErr)
	}
	return ValidationErrors{err}
}

var (
	reportOnce      sync.Once
	reportValidator *Validator
	reportErr       error
)

// ValidateReport validates a completed report payload.
func ValidateReport(jsonStr string) error {
	reportOnce.Do(func() {
		reportValidator, reportErr = Compile("report.json", ReportSchema)
	})
	if reportErr != nil {
		return reportErr
	}
	return reportValidator.Validate(jsonStr)
}

// extractValidationErrors flattens a validation error tree, keeping the leaves
func extractValidationErrors(err *jsonschema.ValidationError) ValidationErrors {
	if len(err.Causes) == 0 {
		return ValidationErrors{fmt.Errorf("validation error at %s: %s", err.InstanceLocation, err.Message)}
	}

	var errors ValidationErrors
	for _, childErr := range err.Causes {
		errors = append(errors, extractValidationErrors(childErr)...)
	}
	return errors
}
