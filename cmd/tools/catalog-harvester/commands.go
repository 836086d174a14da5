package main

import (
	"context"
	"fmt"
	"time"

	"phone-finder-workers/internal/catalog"
	"phone-finder-workers/internal/common/config"
	"phone-finder-workers/internal/common/database"
	"phone-finder-workers/internal/common/logger"
	"phone-finder-workers/internal/harvest"

	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	harvestLimit int
	sitemapURL   string
)

var rootCmd = &cobra.Command{
	Use:   "catalog-harvester",
	Short: "Populate the phones catalog from the retailer sitemap",
	Long: `catalog-harvester crawls the retailer product sitemap, parses each phone
product page and upserts the listing into the phones table read by the finder.`,
	SilenceUsage: true,
}

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the phones table if it does not exist",
	RunE:  runInitDB,
}

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Crawl the sitemap and store every matching product page",
	RunE:  runHarvest,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default configs/config.yaml)")

	harvestCmd.Flags().IntVar(&harvestLimit, "limit", 0, "maximum product pages to visit (default from harvest.limit)")
	harvestCmd.Flags().StringVar(&sitemapURL, "sitemap", "", "sitemap URL (default from harvest.sitemap_url)")

	rootCmd.AddCommand(initDBCmd)
	rootCmd.AddCommand(harvestCmd)
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFromFile(cfgFile)
	}
	return config.Load()
}

// openCatalog loads the config, opens the catalog and ensures its schema.
func openCatalog(ctx context.Context) (*config.Config, *database.SQLClient, logger.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open catalog: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("catalog unreachable: %w", err)
	}
	if err := catalog.NewWriter(db.DB).InitSchema(ctx); err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	return cfg, db, log, nil
}

func runInitDB(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	_, db, log, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Info("catalog schema ready", map[string]interface{}{"driver": db.DriverName()})
	fmt.Fprintln(cmd.OutOrStdout(), "phones table ready")
	return nil
}

func runHarvest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, db, log, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	opts := harvest.OptionsFrom(cfg.Harvest)
	if harvestLimit > 0 {
		opts.Limit = harvestLimit
	}
	if sitemapURL != "" {
		opts.SitemapURL = sitemapURL
	}

	h := harvest.NewHarvester(
		harvest.NewHTTPFetcher(cfg.Harvest.UserAgent, config.GetDuration(cfg.Harvest.Timeout)),
		catalog.NewWriter(db.DB),
		opts,
		log,
	)

	report, err := h.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "visited %d pages: %d new, %d updated, %d failed in %s\n",
		report.Discovered, report.Inserted, report.Updated, report.Failed, report.Duration.Round(time.Millisecond))
	return nil
}
