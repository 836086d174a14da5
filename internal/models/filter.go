// internal/models/filter.go
package models

import (
	"fmt"
	"strings"
)

// Filter is a validated search constraint. A nil field means the dimension is
// unconstrained; zero is never used for that.
type Filter struct {
	Brand       *string `json:"brand"`
	MaxPrice    *int    `json:"max_price"`
	MinStorage  *int    `json:"min_storage"`
	MinRAM      *int    `json:"min_ram"`
	MinCameraMP *int    `json:"min_camera_mp"`
}

// FilterFields lists the filter keys in clause order.
var FilterFields = []string{"brand", "max_price", "min_storage", "min_ram", "min_camera_mp"}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// Normalize returns a copy where blank brands and non-positive numbers are absent.
func (f Filter) Normalize() Filter {
	out := Filter{
		MaxPrice:    positive(f.MaxPrice),
		MinStorage:  positive(f.MinStorage),
		MinRAM:      positive(f.MinRAM),
		MinCameraMP: positive(f.MinCameraMP),
	}
	if f.Brand != nil {
		if b := strings.TrimSpace(*f.Brand); b != "" {
			out.Brand = &b
		}
	}
	return out
}

// WithBrand returns a copy of f with the brand replaced. Passing nil clears it.
func (f Filter) WithBrand(brand *string) Filter {
	out := f
	if brand != nil {
		b := *brand
		out.Brand = &b
	} else {
		out.Brand = nil
	}
	return out
}

// HasBrand reports whether a brand constraint is present.
func (f Filter) HasBrand() bool {
	return f.Brand != nil && strings.TrimSpace(*f.Brand) != ""
}

// IsEmpty reports whether no field is constrained.
func (f Filter) IsEmpty() bool {
	return f.Brand == nil && f.MaxPrice == nil && f.MinStorage == nil && f.MinRAM == nil && f.MinCameraMP == nil
}

func (f Filter) String() string {
	parts := make([]string, 0, 5)
	if f.Brand != nil {
		parts = append(parts, fmt.Sprintf("brand=%q", *f.Brand))
	}
	if f.MaxPrice != nil {
		parts = append(parts, fmt.Sprintf("max_price=%d", *f.MaxPrice))
	}
	if f.MinStorage != nil {
		parts = append(parts, fmt.Sprintf("min_storage=%d", *f.MinStorage))
	}
	if f.MinRAM != nil {
		parts = append(parts, fmt.Sprintf("min_ram=%d", *f.MinRAM))
	}
	if f.MinCameraMP != nil {
		parts = append(parts, fmt.Sprintf("min_camera_mp=%d", *f.MinCameraMP))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func positive(v *int) *int {
	if v == nil || *v <= 0 {
		return nil
	}
	n := *v
	return &n
}
