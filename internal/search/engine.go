// Package search runs a filter against the catalog and, when a brand
// constraint leaves nothing, relaxes it once and ranks alternatives.
package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"phone-finder-workers/internal/catalog"
	"phone-finder-workers/internal/common/logger"
	"phone-finder-workers/internal/common/metrics"
	"phone-finder-workers/internal/models"

	"github.com/google/uuid"
)

const slowRanking = 500 * time.Millisecond

// Catalog is the read side of the phone store.
type Catalog interface {
	Find(ctx context.Context, q catalog.Query, limit int) ([]models.Phone, error)
}

type Options struct {
	StrictLimit  int
	RelaxedLimit int
	RelaxedPool  int
}

// Result caps per path. Configured limits above them are lowered.
const (
	MaxStrictResults  = 5
	MaxRelaxedResults = 3
)

// DefaultOptions returns the limits used when none are configured.
func DefaultOptions() Options {
	return Options{StrictLimit: MaxStrictResults, RelaxedLimit: MaxRelaxedResults, RelaxedPool: 50}
}

type Engine struct {
	catalog Catalog
	cache   *Cache
	options Options
	logger  logger.Logger
}

func NewEngine(c Catalog, opts Options, log logger.Logger) *Engine {
	defaults := DefaultOptions()
	if opts.StrictLimit <= 0 || opts.StrictLimit > MaxStrictResults {
		opts.StrictLimit = defaults.StrictLimit
	}
	if opts.RelaxedLimit <= 0 || opts.RelaxedLimit > MaxRelaxedResults {
		opts.RelaxedLimit = defaults.RelaxedLimit
	}
	if opts.RelaxedPool < opts.RelaxedLimit {
		opts.RelaxedPool = defaults.RelaxedPool
		if opts.RelaxedPool < opts.RelaxedLimit {
			opts.RelaxedPool = opts.RelaxedLimit
		}
	}

	return &Engine{
		catalog: c,
		options: opts,
		logger:  log.WithFields(map[string]interface{}{"component": "search-engine"}),
	}
}

// WithCache enables result caching. A nil cache disables it.
func (e *Engine) WithCache(c *Cache) *Engine {
	e.cache = c
	return e
}

// Search runs the strict query and, if it is empty and a brand was given,
// one brand-free query ranked by camera and budget proximity.
func (e *Engine) Search(ctx context.Context, f models.Filter) (models.ResultSet, error) {
	f = f.Normalize()
	log := e.logger.WithFields(map[string]interface{}{
		"searchId": uuid.NewString(),
		"filter":   f.String(),
	})

	if e.cache != nil {
		rs, hit, err := e.cache.Get(ctx, f)
		switch {
		case err != nil:
			metrics.SearchCacheTotal.WithLabelValues("error").Inc()
			log.Warn("search cache read failed", map[string]interface{}{"error": err.Error()})
		case hit:
			metrics.SearchCacheTotal.WithLabelValues("hit").Inc()
			return rs, nil
		default:
			metrics.SearchCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	rs, err := e.search(ctx, f, log)
	if err != nil {
		return models.ResultSet{}, err
	}

	outcome := "found"
	if rs.Empty() {
		outcome = "empty"
	}
	metrics.SearchPathTotal.WithLabelValues(string(rs.Path), outcome).Inc()

	if e.cache != nil {
		if err := e.cache.Set(ctx, f, rs); err != nil {
			log.Warn("search cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}

	return rs, nil
}

func (e *Engine) search(ctx context.Context, f models.Filter, log logger.Logger) (models.ResultSet, error) {
	strict, err := e.catalog.Find(ctx, catalog.Build(f, catalog.KeepBrand), e.options.StrictLimit)
	if err != nil {
		return models.ResultSet{}, err
	}

	if len(strict) > 0 || !f.HasBrand() {
		return models.ResultSet{Path: models.SearchPathStrict, Phones: nonNil(strict)}, nil
	}

	log.Info("no strict matches, relaxing brand", map[string]interface{}{"brand": *f.Brand})

	pool, err := e.catalog.Find(ctx, catalog.Build(f, catalog.NoBrand()), e.options.RelaxedPool)
	if err != nil {
		return models.ResultSet{}, err
	}

	start := time.Now()
	ranked := Rank(pool, f, e.options.RelaxedLimit)
	if elapsed := time.Since(start); elapsed > slowRanking {
		log.Warn("slow relaxed ranking", map[string]interface{}{
			"candidates": len(pool),
			"durationMs": elapsed.Milliseconds(),
		})
	}

	rs := models.ResultSet{Path: models.SearchPathRelaxed, Phones: ranked}
	if len(ranked) > 0 {
		rs.Explanation = Explanation(len(ranked))
	}
	return rs, nil
}

// Rank orders candidates by camera resolution, then by how close the price
// is to the budget, then by their incoming order, and keeps the first limit.
// Without a budget a lower price ranks first. Listings without a price rank
// after priced ones of the same camera. candidates is not modified.
func Rank(candidates []models.Phone, f models.Filter, limit int) []models.Phone {
	ranked := append([]models.Phone{}, candidates...)

	gap := func(p models.Phone) int {
		if f.MaxPrice == nil {
			return p.PriceCOP
		}
		return *f.MaxPrice - p.PriceCOP
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].CameraMP != ranked[j].CameraMP {
			return ranked[i].CameraMP > ranked[j].CameraMP
		}
		if pi, pj := ranked[i].PriceCOP > 0, ranked[j].PriceCOP > 0; pi != pj {
			return pi
		}
		return gap(ranked[i]) < gap(ranked[j])
	})

	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Explanation is the message attached to a relaxed result set of n phones.
func Explanation(n int) string {
	if n == 1 {
		return "No encontré modelos de esa marca con esos requisitos. Aquí tienes 1 opción destacada de otras marcas:"
	}
	return fmt.Sprintf("No encontré modelos de esa marca con esos requisitos. Aquí tienes %d opciones destacadas de otras marcas:", n)
}

func nonNil(phones []models.Phone) []models.Phone {
	if phones == nil {
		return []models.Phone{}
	}
	return phones
}
