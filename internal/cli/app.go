package cli

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"

	"github.com/BarkinBalci/ga4-warehouse-loader/internal/archive/s3"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/auth"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/config"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/domain"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/export"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/logger"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/notify/sqs"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/pipeline"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/report"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/ui"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/warehouse/backend"
)

// Execute loads the configuration, wires every component and runs the job
func Execute(ctx context.Context, configPath string, mode domain.Mode, narrator *ui.Narrator) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		narrator.Error("Failed to load config: %v", err)
		return err
	}

	log, err := logger.New(cfg.Service.Environment, cfg.Service.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func(log *zap.Logger) {
		// stderr does not support sync on every platform
		_ = log.Sync()
	}(log)

	log.Info("Starting ga4-loader",
		zap.String("environment", cfg.Service.Environment),
		zap.String("mode", string(mode)),
		zap.String("warehouse", cfg.Warehouse.Driver))

	window, err := pipeline.WindowFor(mode, time.Now(), cfg.Warehouse.InitialFetchFromDate)
	if err != nil {
		return err
	}

	// Authentication
	oauthConfig, err := auth.OAuthConfig(cfg.Auth.ClientSecretFile, cfg.Auth.Scopes...)
	if err != nil {
		narrator.Error("Authentication failed: %v", err)
		return err
	}
	flow := auth.NewInstalledAppFlow(oauthConfig, cfg.Auth.RedirectPort, narrator.Writer(), log)
	tokenSource, err := auth.TokenSource(ctx, oauthConfig, auth.NewFileTokenStore(cfg.Auth.TokenCacheFile), flow, log)
	if err != nil {
		narrator.Error("Authentication failed: %v", err)
		return err
	}

	var creds *google.Credentials
	if cfg.Warehouse.Driver == config.DriverBigQuery {
		creds, err = auth.ServiceAccountCredentials(ctx, cfg.Auth.ServiceAccountFile, bigquery.Scope)
		if err != nil {
			narrator.Error("Authentication failed: %v", err)
			return err
		}
	}
	narrator.Success("Authentication successful")

	// Warehouse
	wh, err := backend.Open(ctx, cfg, creds, log)
	if err != nil {
		narrator.Error("Failed to connect to the warehouse: %v", err)
		return err
	}
	defer func() {
		if err := wh.Close(); err != nil {
			log.Error("Failed to close warehouse", zap.Error(err))
		}
	}()

	// Reporting API
	apiRunner, err := report.NewAPIRunner(ctx, tokenSource)
	if err != nil {
		return err
	}
	fetcher := report.NewFetcher(apiRunner, report.FetcherConfig{
		PropertyID:      cfg.Analytics.PropertyID,
		PageSize:        cfg.Analytics.PageSize,
		MaxRetries:      cfg.Analytics.MaxRetries,
		InitialInterval: cfg.Analytics.RetryInitialInterval(),
	}, log)

	exporter, err := export.New(cfg.Export.Format, cfg.Export.Path)
	if err != nil {
		return err
	}

	var opts pipeline.Options
	if cfg.Archive.Enabled() {
		archiver, err := s3.NewArchiver(ctx, cfg.Archive, log)
		if err != nil {
			return err
		}
		opts.Archiver = archiver
	}
	if cfg.Notify.Enabled() {
		notifier, err := sqs.NewNotifier(ctx, cfg.Notify, log)
		if err != nil {
			return err
		}
		opts.Notifier = notifier
	}

	runner := pipeline.NewRunner(fetcher, exporter, wh, cfg.Warehouse.TablePrefix, opts, narrator, log)

	summary, err := runner.Run(ctx, mode, window)
	if err != nil {
		narrator.Error("Run failed: %v", err)
		return err
	}

	narrator.Success("Run %s complete: %d fetched, %d skipped, %d partitions loaded",
		summary.RunID, summary.Fetched, summary.Skipped, len(summary.Partitions))
	return nil
}
