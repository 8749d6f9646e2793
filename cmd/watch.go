package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/poml-lang/poml/compile"
)

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Recompile documents as they change",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide file or directory paths")
			os.Exit(1)
		}

		cfg, err := resolveConfig()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}

		// runs until interrupted, so the --timeout flag does not apply here
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		err = compile.Watch(ctx, logger, args, cfg, func(report *compile.Report) {
			if len(report.Diags) == 0 {
				fmt.Printf("%s: ok\n", report.Path)
				return
			}
			printReports(logger, []*compile.Report{report}, false, false, "")
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Error watching paths", zap.Error(err))
			os.Exit(1)
		}
	},
}
