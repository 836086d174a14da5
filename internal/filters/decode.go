// internal/filters/decode.go
package filters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"phone-finder-workers/internal/common/validation"
	"phone-finder-workers/internal/models"
)

var filterSchema = validation.MustSchema(map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"brand": map[string]interface{}{
			"type":    []interface{}{"string", "null"},
			"pattern": `\S`,
		},
		"max_price":     positiveIntOrNull(),
		"min_storage":   positiveIntOrNull(),
		"min_ram":       positiveIntOrNull(),
		"min_camera_mp": positiveIntOrNull(),
	},
})

func positiveIntOrNull() map[string]interface{} {
	return map[string]interface{}{
		"type":    []interface{}{"integer", "null"},
		"minimum": 1,
	}
}

var (
	fencePattern  = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	digitsPattern = regexp.MustCompile(`^\d+$`)
)

var intFields = []string{"max_price", "min_storage", "min_ram", "min_camera_mp"}

// Decoded is an oracle reply turned into a filter, with the fields that were
// present but rejected.
type Decoded struct {
	Filter  models.Filter
	Dropped []string
}

// Decode reads reply as a JSON object and keeps every filter field that
// validates. A reply that is not a JSON object is an error; one bad field is not.
func Decode(reply string) (Decoded, error) {
	text := stripFences(reply)

	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return Decoded{}, fmt.Errorf("reply is not JSON: %w", err)
	}
	if dec.More() {
		return Decoded{}, fmt.Errorf("reply has trailing data after the JSON object")
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return Decoded{}, fmt.Errorf("reply is a JSON %s, not an object", jsonKind(raw))
	}

	doc := make(map[string]interface{}, len(models.FilterFields))
	for _, field := range models.FilterFields {
		if v, present := obj[field]; present {
			doc[field] = lenient(field, v)
		}
	}

	result, err := filterSchema.Validate(doc)
	if err != nil {
		return Decoded{}, err
	}

	dropped := result.InvalidFields()
	for _, field := range dropped {
		delete(doc, field)
	}

	f := models.Filter{}
	if b, ok := doc["brand"].(string); ok {
		f.Brand = models.StringPtr(b)
	}
	for field, dst := range map[string]**int{
		"max_price":     &f.MaxPrice,
		"min_storage":   &f.MinStorage,
		"min_ram":       &f.MinRAM,
		"min_camera_mp": &f.MinCameraMP,
	} {
		v, present := doc[field]
		if !present || v == nil {
			continue
		}
		// integers the schema accepts but an int cannot hold
		if *dst = intValue(v); *dst == nil {
			dropped = append(dropped, field)
		}
	}
	sort.Strings(dropped)

	return Decoded{Filter: f.Normalize(), Dropped: dropped}, nil
}

func stripFences(reply string) string {
	s := strings.TrimSpace(reply)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// lenient accepts digit-only strings for integer fields.
func lenient(field string, v interface{}) interface{} {
	s, ok := v.(string)
	if !ok || field == "brand" {
		return v
	}
	s = strings.TrimSpace(s)
	if digitsPattern.MatchString(s) {
		return json.Number(s)
	}
	return v
}

func intValue(v interface{}) *int {
	n, ok := v.(json.Number)
	if !ok {
		return nil
	}
	if i, err := strconv.Atoi(n.String()); err == nil {
		return models.IntPtr(i)
	}
	// 2000000.0 validates as an integer
	if fl, err := n.Float64(); err == nil && fl == math.Trunc(fl) && fl < math.MaxInt64 {
		return models.IntPtr(int(fl))
	}
	return nil
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
