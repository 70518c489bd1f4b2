package main

import (
	"context"
	"os"

	"github.com/woozymasta/olsview/internal/config"
	"github.com/woozymasta/olsview/internal/fetch"
	"github.com/woozymasta/olsview/internal/logger"
	"github.com/woozymasta/olsview/internal/processor"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string   `short:"c" long:"config"   env:"CONFIG_FILE"   description:"Path to configuration file" default:"config.yaml"`
	BaseURL    string   `short:"u" long:"base-url" env:"DATA_BASE_URL" description:"Source URL of the layer files (overrides data.base_url)"`
	Dir        string   `short:"d" long:"dir"      env:"DATA_DIR"      description:"Destination directory (overrides data.dir)"`
	Limit      []string `short:"l" long:"limit"    env:"LIMIT_FILES"   description:"Limit processing to specific layer paths"`
	Force      bool     `short:"f" long:"force"    description:"Force overwrite of existing files"`
	Minify     bool     `short:"m" long:"minify"   description:"Minify GeoJSON before saving"`
}

func main() {
	_ = godotenv.Load(".env")

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.LoadOptional(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if opts.BaseURL != "" {
		cfg.Data.BaseURL = opts.BaseURL
	}
	if opts.Dir != "" {
		cfg.Data.Dir = opts.Dir
	}
	if cfg.Data.BaseURL == "" {
		log.Fatal().Msg("No source: set data.base_url or --base-url")
	}

	source, err := fetch.NewHTTP(fetch.NewClient(cfg), cfg.Data.BaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid source URL")
	}

	// Filter layers if limit is set
	paths := cfg.Paths()
	if len(opts.Limit) > 0 {
		known := make(map[string]bool, len(paths))
		for _, p := range paths {
			known[p] = true
		}

		seen := make(map[string]bool)
		paths = paths[:0:0]

		for _, name := range opts.Limit {
			if seen[name] {
				continue
			}
			seen[name] = true

			if known[name] {
				paths = append(paths, name)
			} else {
				log.Error().
					Str("name", name).
					Msg("Layer specified in --limit not found in configuration")
			}
		}
	}

	log.Info().
		Str("source", cfg.Data.BaseURL).
		Str("dest", cfg.Data.Dir).
		Int("layers_total", len(cfg.Paths())).
		Int("layers_queued", len(paths)).
		Msg("Starting loader")

	sum := processor.ProcessLayers(context.Background(), source, paths, cfg.Data.Dir, opts.Force, opts.Minify)

	log.Info().
		Int("saved", sum.Saved).
		Int("skipped", sum.Skipped).
		Int("failed", sum.Failed).
		Msg("Loader finished")

	if sum.Failed > 0 {
		os.Exit(1)
	}
}
