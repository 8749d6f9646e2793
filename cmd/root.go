package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/poml-lang/poml/compile"
)

// defaultConfigFile is looked up in the working directory when --config
// is not given.
const defaultConfigFile = ".pomlc.yaml"

var (
	cfgFile string
	timeout time.Duration

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:              "pomlc [paths...]",
	Short:            "pomlc - compiler front end for POML prompt documents",
	TraverseChildren: true, // Prioritize subcommands
	Run: func(cmd *cobra.Command, args []string) {
		// no subcommand
		if len(args) == 0 {
			// display help when only 'pomlc' is entered
			_ = cmd.Help()
			return
		}
		// Format: pomlc [path1 path2 ...] => behaves like the check subcommand
		checkCmd.Run(checkCmd, args)
	},
}

func Execute() error {
	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to the configuration file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Timeout for the whole run")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(astCmd)
	rootCmd.AddCommand(watchCmd)
}

// resolveConfig loads the file named by --config. Without the flag it
// falls back to .pomlc.yaml in the working directory, and to built-in
// defaults when that does not exist either.
func resolveConfig() (compile.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err != nil {
			return compile.DefaultConfig(), nil
		}
		path = defaultConfigFile
	}
	return compile.LoadConfig(path)
}
