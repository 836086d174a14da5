// Package catalog turns filters into parameterized catalog predicates and
// reads and writes the phones table.
package catalog

import (
	"strings"

	"phone-finder-workers/internal/models"
)

type overrideMode int

const (
	overrideKeep overrideMode = iota
	overrideDrop
	overrideReplace
)

// BrandOverride changes how the filter's brand becomes a clause. The zero
// value keeps the filter's brand.
type BrandOverride struct {
	mode  overrideMode
	brand string
}

// KeepBrand uses whatever brand the filter carries.
var KeepBrand = BrandOverride{}

// NoBrand removes the brand constraint.
func NoBrand() BrandOverride {
	return BrandOverride{mode: overrideDrop}
}

// OverrideBrand replaces the filter's brand with brand.
func OverrideBrand(brand string) BrandOverride {
	return BrandOverride{mode: overrideReplace, brand: brand}
}

const (
	clauseTrue    = "1=1"
	clauseBrand   = `LOWER(brand) LIKE LOWER(?) ESCAPE '\'`
	clauseMaxCOP  = "price_cop <= ?"
	clauseStorage = "storage_gb >= ?"
	clauseRAM     = "ram_gb >= ?"
	clauseCamera  = "camera_mp >= ?"
)

// Query is a conjunction of predicates with positional bind arguments. Values
// only ever travel in Args.
type Query struct {
	Clauses []string
	Args    []interface{}
}

// Where renders the predicate list joined with AND.
func (q Query) Where() string {
	if len(q.Clauses) == 0 {
		return clauseTrue
	}
	return strings.Join(q.Clauses, " AND ")
}

// Build converts f into a Query. Clauses follow a fixed order: brand, price,
// storage, RAM, camera. Build performs no I/O.
func Build(f models.Filter, override BrandOverride) Query {
	q := Query{
		Clauses: []string{clauseTrue},
		Args:    []interface{}{},
	}

	if brand, ok := resolveBrand(f, override); ok {
		q.Clauses = append(q.Clauses, clauseBrand)
		q.Args = append(q.Args, "%"+escapeLike(brand)+"%")
	}

	appendInt := func(clause string, v *int) {
		if v == nil {
			return
		}
		q.Clauses = append(q.Clauses, clause)
		q.Args = append(q.Args, *v)
	}

	appendInt(clauseMaxCOP, f.MaxPrice)
	appendInt(clauseStorage, f.MinStorage)
	appendInt(clauseRAM, f.MinRAM)
	appendInt(clauseCamera, f.MinCameraMP)

	return q
}

func resolveBrand(f models.Filter, override BrandOverride) (string, bool) {
	var brand string
	switch override.mode {
	case overrideDrop:
		return "", false
	case overrideReplace:
		brand = override.brand
	default:
		if f.Brand == nil {
			return "", false
		}
		brand = *f.Brand
	}

	brand = strings.TrimSpace(brand)
	return brand, brand != ""
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
