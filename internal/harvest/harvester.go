// Package harvest crawls the retailer sitemap and loads product pages into
// the phones catalog.
package harvest

import (
	"bytes"
	"context"
	"time"

	"phone-finder-workers/internal/common/config"
	"phone-finder-workers/internal/common/errors"
	"phone-finder-workers/internal/common/logger"
	"phone-finder-workers/internal/common/metrics"
	"phone-finder-workers/internal/models"
)

// Sink stores harvested listings. catalog.Writer satisfies it.
type Sink interface {
	Upsert(ctx context.Context, l models.PhoneListing) (bool, error)
}

type Options struct {
	SitemapURL    string
	ProductFilter string
	Limit         int
}

// OptionsFrom maps the harvest config section onto Options.
func OptionsFrom(cfg config.HarvestConfig) Options {
	return Options{
		SitemapURL:    cfg.SitemapURL,
		ProductFilter: cfg.ProductFilter,
		Limit:         cfg.Limit,
	}
}

// Report counts what one run did with each product page.
type Report struct {
	Discovered int           `json:"discovered"`
	Inserted   int           `json:"inserted"`
	Updated    int           `json:"updated"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"duration"`
}

type Harvester struct {
	fetcher Fetcher
	sink    Sink
	options Options
	logger  logger.Logger
}

func NewHarvester(fetcher Fetcher, sink Sink, opts Options, log logger.Logger) *Harvester {
	return &Harvester{
		fetcher: fetcher,
		sink:    sink,
		options: opts,
		logger:  log.WithFields(map[string]interface{}{"component": "harvester"}),
	}
}

// Run fetches the sitemap and stores every matching product page. Only a
// sitemap failure or cancellation ends the run with an error; pages that
// fail are logged and counted.
func (h *Harvester) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	report := Report{}

	data, err := h.fetcher.Fetch(ctx, h.options.SitemapURL)
	if err != nil {
		return report, errors.NewHarvestFailedError("sitemap", err)
	}

	urls, err := ProductURLs(data, h.options.ProductFilter, h.options.Limit)
	if err != nil {
		return report, errors.NewHarvestFailedError("sitemap", err)
	}
	report.Discovered = len(urls)

	h.logger.Info("harvest started", map[string]interface{}{
		"sitemap": h.options.SitemapURL,
		"pages":   len(urls),
	})

	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			return report, errors.NewHarvestFailedError("pages", err)
		}

		inserted, err := h.harvestPage(ctx, url)
		switch {
		case err != nil:
			report.Failed++
			metrics.HarvestPagesTotal.WithLabelValues("failed").Inc()
			h.logger.Warn("product page skipped", map[string]interface{}{
				"url":   url,
				"error": err.Error(),
			})
		case inserted:
			report.Inserted++
			metrics.HarvestPagesTotal.WithLabelValues("inserted").Inc()
		default:
			report.Updated++
			metrics.HarvestPagesTotal.WithLabelValues("updated").Inc()
		}
	}

	report.Duration = time.Since(start)
	h.logger.Info("harvest finished", map[string]interface{}{
		"discovered": report.Discovered,
		"inserted":   report.Inserted,
		"updated":    report.Updated,
		"failed":     report.Failed,
		"durationMs": report.Duration.Milliseconds(),
	})
	return report, nil
}

func (h *Harvester) harvestPage(ctx context.Context, url string) (bool, error) {
	body, err := h.fetcher.Fetch(ctx, url)
	if err != nil {
		return false, err
	}

	listing, err := ParseProduct(url, bytes.NewReader(body))
	if err != nil {
		return false, err
	}

	return h.sink.Upsert(ctx, listing)
}
