package main

import (
	"flag"
	"os"

	"github.com/richard-senior/pitchform/internal/logger"
	"github.com/richard-senior/pitchform/pkg/pitchform"
)

func main() {
	configPath := flag.String("config", "", "path to an optional YAML config file")
	splitsPath := flag.String("splits", "", "path to an optional betting-splits CSV")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		logger.SetLevel(logger.DEBUG)
	}

	if *configPath != "" {
		if err := pitchform.LoadConfig(*configPath); err != nil {
			logger.Fatal("Failed to load config", err)
		}
	}

	pipeline := pitchform.NewPipeline()
	if *splitsPath != "" {
		pipeline = pipeline.WithSplitsSource(*splitsPath)
	}

	defer pitchform.CloseDatabase()

	if err := pipeline.Run(); err != nil {
		logger.Error("Pipeline failed", err)
		os.Exit(1)
	}
}
