package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"clausewise/internal/analysis"
	"clausewise/internal/config"
	"clausewise/internal/helper"
	"clausewise/internal/report"
	"clausewise/internal/server"
)

const (
	configFilePath  = "./configs/config.yaml"
	shutdownTimeout = 15 * time.Second
)

func main() {
	configPath := flag.String("config", configFilePath, "Path to the YAML config file")
	filePath := flag.String("file", "", "Path to the contract to analyze (.pdf, .docx, .txt)")
	dryRun := flag.Bool("dry-run", false, "Only decode and segment the file, do not call any model")
	serve := flag.Bool("serve", false, "Run the web interface")
	pdfOut := flag.String("pdf", "", "Also write the report as a PDF to this path")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	setupLogger(cfg.Log)
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	if *filePath != "" && *serve {
		log.Fatal().Msg("Please provide either a document file using the -file flag or -serve, but not both")
	}

	switch {
	case *filePath != "" && *dryRun:
		segmentFile(*filePath)
	case *filePath != "":
		analyzeFile(context.Background(), cfg, *filePath, *pdfOut)
	case *serve:
		runServer(cfg)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func setupLogger(cfg config.LogConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()
}

func openInput(path string) (report.Input, *os.File) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Error opening document")
	}
	return report.Input{Filename: filepath.Base(path), Reader: f}, f
}

func segmentFile(path string) {
	in, f := openInput(path)
	defer f.Close()

	r, _, err := report.Prepare(in)
	if err != nil {
		log.Fatal().Err(err).Msg("Error parsing document")
	}
	if err := helper.PrettyPrint(os.Stdout, r.Clauses); err != nil {
		log.Fatal().Err(err).Msg("Error printing clauses")
	}
}

func analyzeFile(ctx context.Context, cfg *config.Config, path, pdfOut string) {
	svc := analysis.NewServiceFromConfig(cfg)
	defer svc.Close()
	if err := svc.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Error initializing analysis backends")
	}

	in, f := openInput(path)
	defer f.Close()

	r, err := report.NewBuilder(svc, cfg.Analysis).Build(ctx, in)
	if err != nil {
		log.Error().Err(err).Msg("Error analyzing document")
		os.Exit(1)
	}
	fmt.Println(report.Markdown(r))

	if pdfOut == "" {
		return
	}
	out, err := os.Create(pdfOut)
	if err != nil {
		log.Error().Err(err).Msg("Error creating PDF file")
		os.Exit(1)
	}
	defer out.Close()
	if err := report.WritePDF(r, out); err != nil {
		log.Error().Err(err).Msg("Error writing PDF report")
		os.Exit(1)
	}
	log.Info().Str("path", pdfOut).Msg("Wrote PDF report")
}

func runServer(cfg *config.Config) {
	svc := analysis.NewServiceFromConfig(cfg)
	// warm the models up front so the first upload is not the slow one
	go func() {
		if err := svc.Start(context.Background()); err != nil {
			log.Error().Err(err).Msg("Analysis backends unavailable, requests will fail")
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.New(report.NewBuilder(svc, cfg.Analysis), cfg.Server).Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutting down server")
	case err := <-errCh:
		log.Error().Err(err).Msg("Server failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Error shutting down server")
	}
	if err := svc.Close(); err != nil {
		log.Error().Err(err).Msg("Error releasing analysis backends")
	}
}
