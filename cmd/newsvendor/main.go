package main

import (
	"flag"
	"fmt"

	"github.com/iwvelando/newsvendor/internal/config"
	"github.com/iwvelando/newsvendor/internal/logging"
	"github.com/iwvelando/newsvendor/internal/simulation"
	"github.com/iwvelando/newsvendor/pkg/constants"
	"github.com/iwvelando/newsvendor/pkg/output"
	"github.com/iwvelando/newsvendor/pkg/validation"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Environment overrides may live in a local .env file.
	_ = godotenv.Load()

	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	seedFlag := flag.Int64("seed", 0, "random seed override")
	simulationsFlag := flag.Int("simulations", 0, "number of simulated demand draws override")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}

	logger, err := logging.NewLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI overrides take precedence over the configuration file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			seed := *seedFlag
			conf.Simulation.Seed = &seed
		case "simulations":
			conf.Simulation.Count = *simulationsFlag
		}
	})

	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	err = validation.ValidateOutputFormat(outputFormat)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	report, err := simulation.Run(logger, *conf)
	if err != nil {
		logger.Fatal("failed to run simulation",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(report, conf.Output.Distribution)
	case constants.OutputFormatCSV:
		output.CsvFormat(report)
	}
}
