package catalog

import (
	"testing"

	"phone-finder-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name            string
		filter          models.Filter
		override        BrandOverride
		expectedClauses []string
		expectedArgs    []interface{}
	}{
		{
			name:            "empty filter",
			filter:          models.Filter{},
			override:        KeepBrand,
			expectedClauses: []string{"1=1"},
			expectedArgs:    []interface{}{},
		},
		{
			name: "brand and budget",
			filter: models.Filter{
				Brand:    models.StringPtr("Samsung"),
				MaxPrice: models.IntPtr(2_000_000),
			},
			override:        KeepBrand,
			expectedClauses: []string{"1=1", clauseBrand, "price_cop <= ?"},
			expectedArgs:    []interface{}{"%Samsung%", 2_000_000},
		},
		{
			name: "every field in clause order",
			filter: models.Filter{
				MinCameraMP: models.IntPtr(48),
				MinRAM:      models.IntPtr(8),
				MinStorage:  models.IntPtr(128),
				MaxPrice:    models.IntPtr(1_500_000),
				Brand:       models.StringPtr("Xiaomi"),
			},
			override: KeepBrand,
			expectedClauses: []string{
				"1=1", clauseBrand, "price_cop <= ?", "storage_gb >= ?", "ram_gb >= ?", "camera_mp >= ?",
			},
			expectedArgs: []interface{}{"%Xiaomi%", 1_500_000, 128, 8, 48},
		},
		{
			name: "no brand override drops brand",
			filter: models.Filter{
				Brand:    models.StringPtr("Nokia"),
				MaxPrice: models.IntPtr(1_000_000),
			},
			override:        NoBrand(),
			expectedClauses: []string{"1=1", "price_cop <= ?"},
			expectedArgs:    []interface{}{1_000_000},
		},
		{
			name:            "override replaces brand",
			filter:          models.Filter{Brand: models.StringPtr("Nokia")},
			override:        OverrideBrand("Motorola"),
			expectedClauses: []string{"1=1", clauseBrand},
			expectedArgs:    []interface{}{"%Motorola%"},
		},
		{
			name:            "override adds brand to brandless filter",
			filter:          models.Filter{MinRAM: models.IntPtr(4)},
			override:        OverrideBrand(" Apple "),
			expectedClauses: []string{"1=1", clauseBrand, "ram_gb >= ?"},
			expectedArgs:    []interface{}{"%Apple%", 4},
		},
		{
			name:            "blank brand is ignored",
			filter:          models.Filter{Brand: models.StringPtr("   ")},
			override:        KeepBrand,
			expectedClauses: []string{"1=1"},
			expectedArgs:    []interface{}{},
		},
		{
			name:            "like metacharacters are escaped",
			filter:          models.Filter{Brand: models.StringPtr(`50%_off\`)},
			override:        KeepBrand,
			expectedClauses: []string{"1=1", clauseBrand},
			expectedArgs:    []interface{}{`%50\%\_off\\%`},
		},
		{
			name:            "injection stays a bind argument",
			filter:          models.Filter{Brand: models.StringPtr("x' OR '1'='1")},
			override:        KeepBrand,
			expectedClauses: []string{"1=1", clauseBrand},
			expectedArgs:    []interface{}{"%x' OR '1'='1%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Build(tt.filter, tt.override)
			assert.Equal(t, tt.expectedClauses, q.Clauses)
			assert.Equal(t, tt.expectedArgs, q.Args)
		})
	}
}

func TestBuild_DoesNotMutateFilter(t *testing.T) {
	f := models.Filter{Brand: models.StringPtr("Nokia"), MaxPrice: models.IntPtr(900_000)}

	_ = Build(f, OverrideBrand("Samsung"))
	_ = Build(f, NoBrand())

	assert.Equal(t, "Nokia", *f.Brand)
	assert.Equal(t, 900_000, *f.MaxPrice)
}

func TestBuild_ArgsMatchPlaceholders(t *testing.T) {
	f := models.Filter{
		Brand:       models.StringPtr("Oppo"),
		MaxPrice:    models.IntPtr(1),
		MinStorage:  models.IntPtr(2),
		MinRAM:      models.IntPtr(3),
		MinCameraMP: models.IntPtr(4),
	}

	for _, override := range []BrandOverride{KeepBrand, NoBrand(), OverrideBrand("Vivo")} {
		q := Build(f, override)
		placeholders := 0
		for _, r := range q.Where() {
			if r == '?' {
				placeholders++
			}
		}
		assert.Equal(t, len(q.Args), placeholders)
	}
}

func TestQuery_Where(t *testing.T) {
	assert.Equal(t, "1=1", Query{}.Where())
	assert.Equal(t, "1=1", Build(models.Filter{}, KeepBrand).Where())
	assert.Equal(t,
		"1=1 AND price_cop <= ? AND camera_mp >= ?",
		Build(models.Filter{MaxPrice: models.IntPtr(10), MinCameraMP: models.IntPtr(12)}, KeepBrand).Where(),
	)
}
