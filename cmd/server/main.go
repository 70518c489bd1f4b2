package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/woozymasta/olsview/internal/config"
	"github.com/woozymasta/olsview/internal/fetch"
	"github.com/woozymasta/olsview/internal/logger"
	"github.com/woozymasta/olsview/internal/scene"
	"github.com/woozymasta/olsview/internal/server"
	"github.com/woozymasta/olsview/internal/surface"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config"     env:"CONFIG_FILE"    description:"Path to configuration file" default:"config.yaml"`
	Addr       string `short:"a" long:"addr"       env:"LISTEN_ADDRESS" description:"Address to listen on"       default:"0.0.0.0"`
	BaseURL    string `short:"u" long:"base-url"   env:"DATA_BASE_URL"  description:"Fetch layers from this URL instead of the data directory"`
	Port       int    `short:"p" long:"port"       env:"LISTEN_PORT"    description:"Port to listen on"          default:"8080"`
	NoPreload  bool   `short:"n" long:"no-preload" env:"NO_PRELOAD"     description:"Do not load approach and OLS surfaces at start"`
}

func main() {
	// .env is optional
	_ = godotenv.Load(".env")

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.LoadOptional(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if opts.BaseURL != "" {
		cfg.Data.BaseURL = opts.BaseURL
	}

	ctx := context.Background()
	fetcher, closeFetcher, err := fetch.FromConfig(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up layer fetcher")
	}
	defer closeFetcher()

	sc := scene.New()
	manager := surface.New(sc, fetcher, surface.OptionsFromConfig(cfg))
	srvCtx := server.NewServerContext(cfg, manager, sc)

	if !opts.NoPreload && !manager.LoadAll(ctx) {
		log.Warn().Msg("Initial surface load aborted")
	}

	handler := server.RequestLogger(srvCtx.Routes())

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	log.Info().
		Str("addr", listenAddr).
		Int("primitives", manager.Stats().Total).
		Msg("Web server started")

	if err := http.ListenAndServe(listenAddr, handler); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
