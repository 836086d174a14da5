// internal/finder/form.go
package finder

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"phone-finder-workers/internal/budget"
	"phone-finder-workers/internal/models"
)

var ErrInvalidFilterFormat = errors.New("INVALID_FILTER_FORMAT")

// Form field names accepted by FormFilter.
const (
	FormBudget  = "budget"
	FormBrand   = "brand"
	FormStorage = "storage"
	FormRAM     = "ram"
	FormCamera  = "camera"
)

var nonDigits = regexp.MustCompile(`[^\d]+`)

// FormFilter builds a filter from raw form fields without the oracle. The
// budget goes through the budget parser; the other numbers are read
// leniently. Empty fields are left unconstrained.
func FormFilter(ctx context.Context, parser *budget.Parser, form map[string]interface{}) (models.Filter, error) {
	f := models.Filter{}

	if raw, ok := form[FormBudget]; ok && !blank(raw) {
		text := fmt.Sprint(raw)
		if n, isNum := raw.(float64); isNum {
			text = strconv.FormatFloat(n, 'f', -1, 64)
		}
		value, err := parser.Parse(ctx, text)
		switch {
		case err == nil:
			f.MaxPrice = models.IntPtr(value)
		case errors.Is(err, budget.ErrNotParsed):
		default:
			return models.Filter{}, err
		}
	}

	if raw, ok := form[FormBrand]; ok && !blank(raw) {
		s, isString := raw.(string)
		if !isString {
			return models.Filter{}, fmt.Errorf("%w: brand must be a string", ErrInvalidFilterFormat)
		}
		f.Brand = models.StringPtr(s)
	}

	for _, field := range []struct {
		key    string
		target **int
	}{
		{FormStorage, &f.MinStorage},
		{FormRAM, &f.MinRAM},
		{FormCamera, &f.MinCameraMP},
	} {
		raw, ok := form[field.key]
		if !ok || blank(raw) {
			continue
		}
		n, err := parseInt(raw)
		if err != nil {
			return models.Filter{}, fmt.Errorf("%w: %s: %v", ErrInvalidFilterFormat, field.key, err)
		}
		*field.target = models.IntPtr(n)
	}

	return f.Normalize(), nil
}

func blank(raw interface{}) bool {
	if raw == nil {
		return true
	}
	s, ok := raw.(string)
	return ok && strings.TrimSpace(s) == ""
}

func parseInt(raw interface{}) (int, error) {
	switch v := raw.(type) {
	case float64:
		if v < 0 || v != math.Trunc(v) {
			return 0, errors.New("not a valid positive integer")
		}
		return int(v), nil

	case int:
		if v < 0 {
			return 0, errors.New("negative integer not allowed")
		}
		return v, nil

	case int64:
		if v < 0 {
			return 0, errors.New("negative integer not allowed")
		}
		return int(v), nil

	case string:
		// "128 GB" and "50MP" keep their digits; "6.5" truncates at the point
		cleaned := strings.TrimSpace(v)
		if strings.HasPrefix(cleaned, "-") {
			return 0, errors.New("negative integer not allowed")
		}
		if i := strings.Index(cleaned, "."); i >= 0 {
			cleaned = cleaned[:i]
		}
		cleaned = nonDigits.ReplaceAllString(cleaned, "")
		if cleaned == "" {
			return 0, errors.New("not a number")
		}
		num, err := strconv.Atoi(cleaned)
		if err != nil {
			return 0, fmt.Errorf("strconv.Atoi failed: %w", err)
		}
		return num, nil

	default:
		return 0, errors.New("not a number")
	}
}
