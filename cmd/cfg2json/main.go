package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/woozymasta/olsview/internal/config"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

// Options for dumping the effective configuration, defaults included.
type Options struct {
	Input  string `short:"i" long:"in" description:"Configuration file. Built-in defaults when empty"`
	Output string `short:"o" long:"out" description:"Output file path. Writes to stdout if empty"`
	Format string `short:"f" long:"format" description:"Output format" choice:"json" choice:"yaml" default:"json"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	cfg, err := config.Load(opts.Input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// marshal
	var outputData []byte
	if opts.Format == "yaml" {
		outputData, err = yaml.Marshal(cfg)
	} else {
		outputData, err = json.MarshalIndent(cfg, "", "  ")
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling configuration: %v\n", err)
		os.Exit(1)
	}

	if opts.Output != "" {
		err = os.WriteFile(opts.Output, outputData, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Wrote configuration with %d layer files to %s (format: %s)\n", len(cfg.Paths()), opts.Output, opts.Format)
	} else {
		fmt.Println(string(outputData))
	}
}
