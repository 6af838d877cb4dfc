package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"websift/api"
	"websift/client"
	"websift/config"
	"websift/enrich"
	"websift/search"
	"websift/session"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	query := flag.String("q", "", "run a single search, print the results and exit")
	flag.Parse()

	// =========
	// Config
	// =========
	_ = godotenv.Load()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// =========
	// Logging
	// =========
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	// =========
	// HTTP
	// =========
	httpClient, err := client.NewHttpClient(cfg.ProxyURL, cfg.SearchTimeout)
	if err != nil {
		logger.Fatal("failed to create http client", zap.Error(err))
	}

	// =========
	// Search
	// =========
	engine := newSearchEngine(cfg, httpClient)
	dispatcher := search.NewDispatcher(engine, cfg.SearchTimeout, logger.Named("search"))

	// =========
	// Enrichment
	// =========
	scraper := client.NewScrapeClient(cfg.ContentURL, httpClient)
	aggregator := enrich.NewAggregator(scraper, cfg.FetchTimeout, logger.Named("enrich"))

	sess := session.New(dispatcher, aggregator, logger.Named("session"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *query != "" {
		snap := sess.Search(ctx, search.Query(*query))
		render(os.Stdout, snap)
		if snap.State == session.Failed {
			os.Exit(1)
		}
		return
	}

	// =========
	// API
	// =========
	server := api.NewServer(sess, cfg.AppPort, cfg.CORSOrigins, logger.Named("api"))
	if err := server.Start(ctx); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newSearchEngine(cfg *config.Config, httpClient *http.Client) search.Engine {
	if cfg.SearchBackend == config.BackendSerpAPI {
		return search.NewSerpApiSearchEngine(httpClient, cfg.SerpAPIKey)
	}
	return search.NewEndpointSearchEngine(httpClient, cfg.SearchURL)
}

func render(w io.Writer, snap session.Snapshot) {
	if msg := snap.Message(); msg != "" {
		fmt.Fprintln(w, msg)
	}
	for _, rec := range snap.Ordered() {
		fmt.Fprintf(w, "%s\n  %s\n  %s\n\n", rec.Title, rec.URL, rec.Description)
	}
}
