package main

import (
	"context"
	"io"
	"os"

	"github.com/woozymasta/olsview/internal/config"
	"github.com/woozymasta/olsview/internal/fetch"
	"github.com/woozymasta/olsview/internal/logger"
	"github.com/woozymasta/olsview/internal/scene"
	"github.com/woozymasta/olsview/internal/surface"
	"github.com/woozymasta/olsview/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config"   env:"CONFIG_FILE"   description:"Path to configuration file" default:"config.yaml"`
	BaseURL    string `short:"u" long:"base-url" env:"DATA_BASE_URL" description:"Fetch layers from this URL instead of the data directory"`
	LogFile    string `long:"log-file"           env:"LOG_FILE"      description:"Write logs to this file; logs are discarded when empty"`
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

	// the terminal belongs to the panel
	var logOut io.Writer = io.Discard
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			logger.SetupWriter(opts.Logger, os.Stderr)
			log.Fatal().Err(err).Msg("Failed to open log file")
		}
		defer func() { _ = f.Close() }()
		logOut = f
	}
	logger.SetupWriter(opts.Logger, logOut)

	cfg, err := config.LoadOptional(opts.ConfigFile)
	if err != nil {
		logger.SetupWriter(opts.Logger, os.Stderr)
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if opts.BaseURL != "" {
		cfg.Data.BaseURL = opts.BaseURL
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher, closeFetcher, err := fetch.FromConfig(ctx, cfg)
	if err != nil {
		logger.SetupWriter(opts.Logger, os.Stderr)
		log.Fatal().Err(err).Msg("Failed to set up layer fetcher")
	}
	defer closeFetcher()

	sc := scene.New()
	manager := surface.New(sc, fetcher, surface.OptionsFromConfig(cfg))

	if _, err := tea.NewProgram(tui.New(ctx, manager, sc.Clear), tea.WithAltScreen()).Run(); err != nil {
		log.Error().Err(err).Msg("Panel failed")
		os.Exit(1)
	}
}
