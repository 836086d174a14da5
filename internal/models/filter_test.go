// internal/models/filter_test.go
package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		input    Filter
		expected Filter
	}{
		{
			name:     "empty stays empty",
			input:    Filter{},
			expected: Filter{},
		},
		{
			name:     "zero and negative become absent",
			input:    Filter{MaxPrice: IntPtr(0), MinRAM: IntPtr(-4), MinStorage: IntPtr(128)},
			expected: Filter{MinStorage: IntPtr(128)},
		},
		{
			name:     "blank brand becomes absent",
			input:    Filter{Brand: StringPtr("   ")},
			expected: Filter{},
		},
		{
			name:     "brand is trimmed",
			input:    Filter{Brand: StringPtr("  Samsung ")},
			expected: Filter{Brand: StringPtr("Samsung")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.input.Normalize())
		})
	}
}

func TestFilter_WithBrandDoesNotMutate(t *testing.T) {
	original := Filter{Brand: StringPtr("Nokia"), MaxPrice: IntPtr(500000)}

	relaxed := original.WithBrand(nil)

	require.NotNil(t, original.Brand)
	assert.Equal(t, "Nokia", *original.Brand)
	assert.Nil(t, relaxed.Brand)
	assert.Equal(t, 500000, *relaxed.MaxPrice)
	assert.False(t, relaxed.HasBrand())
	assert.True(t, original.HasBrand())

	overridden := original.WithBrand(StringPtr("Xiaomi"))
	assert.Equal(t, "Xiaomi", *overridden.Brand)
	assert.Equal(t, "Nokia", *original.Brand)
}

func TestFilter_JSONUsesExplicitNulls(t *testing.T) {
	f := Filter{MaxPrice: IntPtr(2000000)}

	data, err := json.Marshal(f)
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"brand":null,"max_price":2000000,"min_storage":null,"min_ram":null,"min_camera_mp":null}`,
		string(data))
}

func TestAnswerSet_WithCopies(t *testing.T) {
	base := NewAnswerSet(map[string]string{QuestionBudget: "8m"})

	next := base.With(QuestionBrand, "Samsung")

	_, ok := base.Get(QuestionBrand)
	assert.False(t, ok)
	assert.Equal(t, []string{"brand", "budget"}, next.Keys())
}
