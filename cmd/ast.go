package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/poml-lang/poml"
	"github.com/poml-lang/poml/ast"
)

var astJsonOutput bool

var astCmd = &cobra.Command{
	Use:   "ast [file]",
	Short: "Print the document tree of a file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		res, err := poml.ParseFile(args[0])
		if err != nil {
			logger.Fatal("Failed to read file", zap.Error(err))
		}

		if astJsonOutput {
			d, err := json.Marshal(res.AST)
			if err != nil {
				logger.Fatal("Failed to marshal tree to JSON", zap.Error(err))
			}
			fmt.Println(string(d))
			return
		}

		fmt.Print(ast.Dump(res.AST))
		// diagnostics go to stderr so the dump itself stays clean
		if len(res.Diags) > 0 {
			fmt.Fprint(os.Stderr, res.Format())
		}
	},
}

func init() {
	astCmd.Flags().BoolVar(&astJsonOutput, "json", false, "Output the tree in JSON format")
}
