package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/poml-lang/poml/compile"
	"github.com/poml-lang/poml/formatter"
	"github.com/poml-lang/poml/source"
)

var (
	checkJsonOutput bool
	checkShort      bool
	outPath         string
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Compile documents and report diagnostics",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide file or directory paths")
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		cfg, err := resolveConfig()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}

		runCheck(ctx, logger, args, cfg, checkJsonOutput, checkShort, outPath)
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkJsonOutput, "json", false, "Output reports in JSON format")
	checkCmd.Flags().BoolVar(&checkShort, "short", false, "One line per diagnostic instead of source snippets")
	checkCmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (when using JSON)")
}

func runCheck(ctx context.Context, logger *zap.Logger, paths []string, cfg compile.Config, isJson, short bool, jsonOutput string) {
	reports, err := compile.Paths(ctx, logger, paths, cfg)
	if err != nil {
		logger.Error("Error compiling files", zap.Error(err))
		os.Exit(1)
	}

	printReports(logger, reports, isJson, short, jsonOutput)

	for _, report := range reports {
		if report.Fails(cfg.FailOn) {
			os.Exit(1)
		}
	}
}

func printReports(logger *zap.Logger, reports []*compile.Report, isJson, short bool, jsonOutput string) {
	if isJson {
		d, err := json.Marshal(reports)
		if err != nil {
			logger.Error("Error marshalling reports to JSON", zap.Error(err))
			return
		}
		if jsonOutput == "" {
			fmt.Println(string(d))
			return
		}
		f, err := os.Create(jsonOutput)
		if err != nil {
			logger.Error("Error creating JSON output file", zap.Error(err))
			return
		}
		defer f.Close()
		if _, err := f.Write(d); err != nil {
			logger.Error("Error writing JSON output file", zap.Error(err))
		}
		return
	}

	// text output
	for _, report := range reports {
		if len(report.Diags) == 0 {
			continue
		}
		file := report.File
		if file == nil {
			// cache hits carry no source text; reload it for the snippet view
			loaded, err := source.Load(report.Path)
			if err != nil {
				logger.Error("Error reading source file", zap.String("file", report.Path), zap.Error(err))
				continue
			}
			file = loaded
		}
		if short {
			for _, d := range report.Diags {
				fmt.Println(formatter.Short(file, d))
			}
			continue
		}
		fmt.Print(formatter.Format(file, report.Diags))
	}
}
