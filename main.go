package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/seo-optimizer/seo-inspector/analyzer"
	"github.com/seo-optimizer/seo-inspector/api"
	"github.com/seo-optimizer/seo-inspector/capture"
	"github.com/seo-optimizer/seo-inspector/config"
	"github.com/seo-optimizer/seo-inspector/inspector"
	"github.com/seo-optimizer/seo-inspector/logging"
	"github.com/seo-optimizer/seo-inspector/middleware"
	"github.com/seo-optimizer/seo-inspector/stats"
)

var (
	version = "dev"

	configPath string
)

var rootCmd = &cobra.Command{
	Use:           "seo-inspector",
	Short:         "On-page SEO inspection service",
	Long:          `seo-inspector captures a web page and reports on its metadata, headings, links, hreflang tags, images and structured data, with an overall SEO score.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg, log)
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [URL]",
	Short: "Analyze a single page and print the report as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}

		file, _ := cmd.Flags().GetString("file")
		pretty, _ := cmd.Flags().GetBool("pretty")
		if cmd.Flags().Changed("render") {
			cfg.Capture.Render, _ = cmd.Flags().GetBool("render")
		}

		return analyzeOnce(cmd.Context(), cfg, log, args[0], file, pretty)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	analyzeCmd.Flags().String("file", "", "analyze a local HTML file as if it were served at URL")
	analyzeCmd.Flags().Bool("render", false, "render the page in headless Chrome before analyzing")
	analyzeCmd.Flags().Bool("pretty", false, "indent the JSON output")

	rootCmd.AddCommand(serveCmd, analyzeCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// newFetcher picks the static or rendered capture path. The returned close
// function releases the browser, if one was started.
func newFetcher(cfg *config.Config, log logrus.FieldLogger) (capture.Fetcher, func()) {
	if cfg.Capture.Render {
		f := capture.NewBrowserFetcher(capture.BrowserOptions{
			ControlURL: cfg.Capture.BrowserURL,
			BrowserBin: cfg.Capture.BrowserBin,
			NoSandbox:  cfg.Capture.NoSandbox,
			Timeout:    cfg.Capture.Timeout,
		}, log)
		return f, func() {
			if err := f.Close(); err != nil {
				log.WithError(err).Warn("Failed to close browser")
			}
		}
	}

	return capture.NewHTTPFetcher(capture.Options{
		Timeout:      cfg.Capture.Timeout,
		UserAgent:    cfg.Capture.UserAgent,
		MaxBodyBytes: cfg.Capture.MaxBodyBytes,
	}, log), func() {}
}

func newAnalyzer(cfg *config.Config, log logrus.FieldLogger) *analyzer.Analyzer {
	return analyzer.New(
		analyzer.WithScoreRules(cfg.Scoring),
		analyzer.WithHreflangRules(cfg.Hreflang),
		analyzer.WithLogger(log),
	)
}

func serve(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	gin.SetMode(cfg.Server.GinMode)

	storage, err := stats.NewStorage(cfg.Stats.DataDir, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := storage.Shutdown(); err != nil {
			log.WithError(err).Error("Failed to flush statistics")
		}
	}()
	storage.Cleanup(cfg.Stats.RetainMonths)

	requestStats := logging.NewStatistics(filepath.Join(cfg.Stats.DataDir, "statistics.json"), cfg.Server.DevMode, log)
	defer func() {
		if err := requestStats.Save(); err != nil {
			log.WithError(err).Error("Failed to save request statistics")
		}
	}()

	fetcher, closeFetcher := newFetcher(cfg, log)
	defer closeFetcher()

	insp := inspector.New(fetcher, newAnalyzer(cfg, log), storage, inspector.Options{
		CacheTTL:        cfg.Cache.TTL,
		CleanupInterval: cfg.Cache.CleanupInterval,
	}, log)

	rateLimiter := middleware.NewRateLimiter(cfg.Server.RequestsPerSecond, cfg.Server.Burst)
	evictStop := make(chan struct{})
	defer close(evictStop)
	go rateLimiter.RunEviction(5*time.Minute, evictStop)

	router := api.NewRouter(api.Deps{
		Inspector:      insp,
		Statistics:     requestStats,
		Storage:        storage,
		RateLimiter:    rateLimiter,
		StatsSaveEvery: cfg.Server.StatsSaveEvery,
		Log:            log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"port":   cfg.Server.Port,
			"render": cfg.Capture.Render,
		}).Info("Server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func analyzeOnce(ctx context.Context, cfg *config.Config, log *logrus.Logger, pageURL, file string, pretty bool) error {
	fetcher, closeFetcher := newFetcher(cfg, log)
	defer closeFetcher()

	insp := inspector.New(fetcher, newAnalyzer(cfg, log), nil, inspector.DefaultOptions(), log)

	var (
		report *analyzer.Report
		err    error
	)
	if file != "" {
		markup, readErr := os.ReadFile(file)
		if readErr != nil {
			return fmt.Errorf("failed to read %s: %w", file, readErr)
		}
		report, err = insp.InspectHTML(string(markup), pageURL)
	} else {
		report, err = insp.Inspect(ctx, pageURL)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(report)
}
