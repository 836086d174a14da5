package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"brand":     map[string]interface{}{"type": []string{"string", "null"}, "minLength": 1},
		"max_price": map[string]interface{}{"type": []string{"integer", "null"}, "minimum": 1},
	},
	"required": []string{"answers"},
}

func TestSchema_Validate(t *testing.T) {
	schema := MustSchema(testSchema)

	tests := []struct {
		name          string
		doc           map[string]interface{}
		valid         bool
		invalidFields []string
	}{
		{
			name:  "valid document",
			doc:   map[string]interface{}{"answers": true, "brand": "Samsung", "max_price": 2000000},
			valid: true,
		},
		{
			name:  "nulls are allowed",
			doc:   map[string]interface{}{"answers": true, "brand": nil, "max_price": nil},
			valid: true,
		},
		{
			name:          "string where integer expected",
			doc:           map[string]interface{}{"answers": true, "max_price": "two million"},
			invalidFields: []string{"max_price"},
		},
		{
			name:          "empty brand and negative price",
			doc:           map[string]interface{}{"answers": true, "brand": "", "max_price": -5},
			invalidFields: []string{"brand", "max_price"},
		},
		{
			name: "missing required field",
			doc:  map[string]interface{}{"brand": "Nokia"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := schema.Validate(tt.doc)
			require.NoError(t, err)

			assert.Equal(t, tt.valid, result.Valid)
			if tt.invalidFields != nil {
				assert.Equal(t, tt.invalidFields, result.InvalidFields())
				assert.NotEmpty(t, result.Error())
			}
		})
	}
}

func TestValidateInput_MissingRequired(t *testing.T) {
	result, err := ValidateInput(map[string]interface{}{"brand": "Nokia"}, testSchema)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, "REQUIRED", result.Errors[0].Code)
}

func TestNewSchema_Invalid(t *testing.T) {
	_, err := NewSchema(map[string]interface{}{"type": 12})
	assert.Error(t, err)
}
