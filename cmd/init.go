package cmd

import (
	"fmt"

	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/poml-lang/poml/compile"
)

// initCmd: pomlc init
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new compiler configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		path, err := initConfigurationFile(cfgFile)
		if err != nil {
			logger.Error("Error initializing config file", zap.Error(err))
			return
		}
		fmt.Printf("Configuration file created/updated: %s\n", path)
	},
}

// initConfigurationFile writes the built-in defaults as a yaml file so
// every knob is visible for editing. It returns the path written.
func initConfigurationFile(configurationPath string) (string, error) {
	if configurationPath == "" {
		configurationPath = defaultConfigFile
	}

	d, err := yaml.Marshal(compile.DefaultConfig())
	if err != nil {
		return "", err
	}

	f, err := os.Create(configurationPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	_, err = f.Write(d)
	if err != nil {
		return "", err
	}

	return configurationPath, nil
}
