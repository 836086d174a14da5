package filters

import (
	"testing"

	"phone-finder-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name            string
		reply           string
		expected        models.Filter
		expectedDropped []string
	}{
		{
			name:  "full object",
			reply: `{"brand":"Samsung","max_price":2000000,"min_storage":128,"min_ram":6,"min_camera_mp":50}`,
			expected: models.Filter{
				Brand:       models.StringPtr("Samsung"),
				MaxPrice:    models.IntPtr(2_000_000),
				MinStorage:  models.IntPtr(128),
				MinRAM:      models.IntPtr(6),
				MinCameraMP: models.IntPtr(50),
			},
			expectedDropped: []string{},
		},
		{
			name:            "nulls are absent",
			reply:           `{"brand":null,"max_price":null,"min_storage":null,"min_ram":null,"min_camera_mp":null}`,
			expected:        models.Filter{},
			expectedDropped: []string{},
		},
		{
			name:            "prose number dropped alone",
			reply:           `{"brand":"Samsung","max_price":"two million"}`,
			expected:        models.Filter{Brand: models.StringPtr("Samsung")},
			expectedDropped: []string{"max_price"},
		},
		{
			name:            "digit strings are accepted",
			reply:           `{"max_price":"2000000","min_ram":" 8 "}`,
			expected:        models.Filter{MaxPrice: models.IntPtr(2_000_000), MinRAM: models.IntPtr(8)},
			expectedDropped: []string{},
		},
		{
			name:            "integral floats are accepted",
			reply:           `{"max_price":1500000.0}`,
			expected:        models.Filter{MaxPrice: models.IntPtr(1_500_000)},
			expectedDropped: []string{},
		},
		{
			name:            "fractional and non-positive numbers dropped",
			reply:           `{"min_storage":64.5,"min_ram":0,"min_camera_mp":-12,"max_price":900000}`,
			expected:        models.Filter{MaxPrice: models.IntPtr(900_000)},
			expectedDropped: []string{"min_camera_mp", "min_ram", "min_storage"},
		},
		{
			name:            "wrong types dropped",
			reply:           `{"brand":42,"min_ram":true,"min_storage":[128]}`,
			expected:        models.Filter{},
			expectedDropped: []string{"brand", "min_ram", "min_storage"},
		},
		{
			name:            "blank brand dropped",
			reply:           `{"brand":"   ","min_ram":4}`,
			expected:        models.Filter{MinRAM: models.IntPtr(4)},
			expectedDropped: []string{"brand"},
		},
		{
			name:            "unknown keys ignored",
			reply:           `{"usage":"Fotografía","color":"negro","min_camera_mp":108}`,
			expected:        models.Filter{MinCameraMP: models.IntPtr(108)},
			expectedDropped: []string{},
		},
		{
			name:            "markdown fence stripped",
			reply:           "```json\n{\"brand\":\"Nokia\",\"max_price\":1000000}\n```",
			expected:        models.Filter{Brand: models.StringPtr("Nokia"), MaxPrice: models.IntPtr(1_000_000)},
			expectedDropped: []string{},
		},
		{
			name:            "integers beyond int range are dropped",
			reply:           `{"brand":"Samsung","max_price":1e30,"min_ram":99999999999999999999}`,
			expected:        models.Filter{Brand: models.StringPtr("Samsung")},
			expectedDropped: []string{"max_price", "min_ram"},
		},
		{
			name:            "brand is trimmed",
			reply:           `{"brand":"  Xiaomi "}`,
			expected:        models.Filter{Brand: models.StringPtr("Xiaomi")},
			expectedDropped: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := Decode(tt.reply)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, decoded.Filter)
			assert.Equal(t, tt.expectedDropped, decoded.Dropped)
		})
	}
}

func TestDecode_RejectsNonObjects(t *testing.T) {
	for _, reply := range []string{
		"",
		"no hay filtros",
		`["Samsung"]`,
		`"Samsung"`,
		`null`,
		`{"brand":"Samsung"`,
		`{"brand":"Samsung"} {"brand":"Nokia"}`,
		`__import__('os').system('rm -rf /')`,
	} {
		_, err := Decode(reply)
		assert.Error(t, err, "reply %q", reply)
	}
}
