// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"phone-finder-workers/internal/common/errors"
	"phone-finder-workers/internal/common/validation"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a registry document and compiles every input schema so a
// broken schema is reported at startup rather than on the first job.
func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}

	seen := make(map[string]bool, len(reg.Activities))
	for i := range reg.Activities {
		a := &reg.Activities[i]
		if a.TaskType == "" {
			return nil, fmt.Errorf("activity %q has no taskType", a.ID)
		}
		if seen[a.TaskType] {
			return nil, fmt.Errorf("duplicate taskType %q", a.TaskType)
		}
		seen[a.TaskType] = true

		if len(a.InputSchema) > 0 {
			schema, err := validation.NewSchema(a.InputSchema)
			if err != nil {
				return nil, fmt.Errorf("activity %s: %w", a.TaskType, err)
			}
			a.input = schema
		}
	}
	return &reg, nil
}

// Find returns the activity registered for taskType.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	if r == nil {
		return nil, false
	}
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// TaskTypes lists the registered task types in document order.
func (r *ActivityRegistry) TaskTypes() []string {
	types := make([]string, 0, len(r.Activities))
	for _, a := range r.Activities {
		types = append(types, a.TaskType)
	}
	return types
}

// ValidateInput checks job variables against the activity's input schema.
// Activities without a schema accept anything.
func (a *Activity) ValidateInput(variables map[string]interface{}) error {
	if a == nil || a.input == nil {
		return nil
	}
	if variables == nil {
		variables = map[string]interface{}{}
	}

	result, err := a.input.Validate(variables)
	if err != nil {
		return errors.NewInputValidationFailedError(err.Error())
	}
	if !result.Valid {
		return errors.NewInputValidationFailedError(result.Error()).
			WithMetadata("taskType", a.TaskType).
			WithMetadata("invalidFields", result.InvalidFields())
	}
	return nil
}
