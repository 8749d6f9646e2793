package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/poml-lang/poml"
	"github.com/poml-lang/poml/lexer"
	"github.com/poml-lang/poml/source"
)

var tokensJsonOutput bool

var tokensCmd = &cobra.Command{
	Use:   "tokens [file]",
	Short: "Print the token stream of a document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		res, err := poml.ParseFile(args[0])
		if err != nil {
			logger.Fatal("Failed to read file", zap.Error(err))
		}

		out, err := formatTokens(res.Tokens, tokensJsonOutput)
		if err != nil {
			logger.Fatal("Failed to render token stream", zap.Error(err))
		}
		fmt.Print(out)
	},
}

func init() {
	tokensCmd.Flags().BoolVar(&tokensJsonOutput, "json", false, "Output tokens in JSON format")
}

// tokenRow is the JSON projection of one token.
type tokenRow struct {
	Kind   string       `json:"kind"`
	Value  string       `json:"value"`
	Range  source.Range `json:"range"`
	Line   int          `json:"line"`
	Column int          `json:"column"`
}

func formatTokens(tokens []lexer.Token, isJson bool) (string, error) {
	if isJson {
		rows := make([]tokenRow, 0, len(tokens))
		for _, tok := range tokens {
			rows = append(rows, tokenRow{
				Kind:   tok.Kind.String(),
				Value:  tok.Value,
				Range:  tok.Range,
				Line:   tok.Line,
				Column: tok.Column,
			})
		}
		d, err := json.Marshal(rows)
		if err != nil {
			return "", err
		}
		return string(d) + "\n", nil
	}

	var sb strings.Builder
	for _, tok := range tokens {
		fmt.Fprintf(&sb, "%4d:%-3d %-14s %q\n", tok.Line, tok.Column, tok.Kind, tok.Value)
	}
	return sb.String(), nil
}
