package main

import (
	"fmt"
	"log/slog"
	"strings"

	"yashubustudio/ailian/detector"

	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath string
	logLevel   string

	appConfig detector.Config
	logger    *slog.Logger

	rootCmd = &cobra.Command{
		Use:   "ailian-cli",
		Short: "Estimate whether Korean text was written by an AI model",
		Long: `ailian-cli combines a linguistic heuristic with a pretrained classifier
to estimate how likely a Korean text is AI-generated. A calibrator trained
on labeled examples refines the estimate when available.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadRuntime,
	}

	detectCmd = &cobra.Command{
		Use:   "detect",
		Short: "Score a text given inline or read from a file",
		RunE:  runDetect, // Defined in cmd_detect.go
	}

	trainCmd = &cobra.Command{
		Use:   "train",
		Short: "Fit the hybrid calibrator from a labeled CSV/TSV/XLSX dataset",
		RunE:  runTrain, // Defined in cmd_train.go
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the detection API over HTTP",
		RunE:  runServe, // Defined in cmd_serve.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json or config.yaml (default: ./config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (DEBUG, INFO, WARN, ERROR)")

	detectCmd.Flags().StringVar(&detectOpts.file, "file", "", "Text file to score")
	detectCmd.Flags().StringVar(&detectOpts.text, "text", "", "Text to score")
	detectCmd.Flags().BoolVar(&detectOpts.lines, "lines", false, "Score every non-empty line of --file separately")
	detectCmd.Flags().BoolVarP(&detectOpts.verbose, "verbose", "v", false, "Print the feature breakdown")
	detectCmd.Flags().BoolVar(&detectOpts.json, "json", false, "Print results as JSON")
	detectCmd.MarkFlagsMutuallyExclusive("file", "text")

	trainCmd.Flags().StringVar(&trainOpts.dataset, "dataset", "", "Labeled dataset with text and label columns")
	trainCmd.Flags().StringVar(&trainOpts.out, "out", "", "Calibrator output path (default: calibrator.path from config)")
	trainCmd.Flags().StringVar(&trainOpts.textColumn, "text-column", "", "Column name or #index holding the text")
	trainCmd.Flags().StringVar(&trainOpts.labelColumn, "label-column", "", "Column name or #index holding the label")
	_ = trainCmd.MarkFlagRequired("dataset")

	serveCmd.Flags().StringVar(&serveOpts.addr, "addr", "", "Listen address (default: server.addr from config)")

	rootCmd.AddCommand(detectCmd, trainCmd, serveCmd)
}

func loadRuntime(cmd *cobra.Command, _ []string) error {
	// A missing .env file is fine.
	_ = godotenv.Load()

	cfg, err := detector.LoadConfig(strings.TrimSpace(configPath))
	if err != nil {
		return configError{err: fmt.Errorf("load config: %w", err)}
	}
	if lvl := strings.TrimSpace(logLevel); lvl != "" {
		cfg.LogLevel = strings.ToUpper(lvl)
	}
	appConfig = cfg
	logger = logs.GetLoggerFromString(cfg.LogLevel)
	return nil
}
