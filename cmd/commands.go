package main

import (
	"encoding/json"
	"fmt"

	"github.com/meghashyamc/quickfind/api"
	"github.com/meghashyamc/quickfind/config"
	"github.com/meghashyamc/quickfind/services/fuzzy"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "quickfind",
		Short:         "Fuzzy matching and search sessions over a file catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMatchCmd())

	return rootCmd
}

func newServeCmd() *cobra.Command {
	var env string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(env)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			return api.Run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&env, "env", "", "config environment to load (defaults to $ENV, then local)")
	return cmd
}

type matchOutput struct {
	Text    string  `json:"text"`
	Matched bool    `json:"matched"`
	Score   float64 `json:"score,omitempty"`
	Indices []int   `json:"indices,omitempty"`
}

type matchSummary struct {
	Query   string        `json:"query"`
	Results []matchOutput `json:"results"`
	Best    *matchOutput  `json:"best,omitempty"`
}

func newMatchCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "match <query> <text>...",
		Short: "Fuzzy-match a query against one or more texts",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary := runMatch(args[0], args[1:])

			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(summary)
			}

			for _, result := range summary.Results {
				if !result.Matched {
					fmt.Fprintf(cmd.OutOrStdout(), "%-40q no match\n", result.Text)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-40q score=%.3f indices=%v\n", result.Text, result.Score, result.Indices)
			}
			if summary.Best != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "best: %q score=%.3f\n", summary.Best.Text, summary.Best.Score)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

// runMatch matches query against every text and picks the best one the way
// fuzzy.MatchFields does.
func runMatch(query string, texts []string) matchSummary {
	summary := matchSummary{Query: query, Results: make([]matchOutput, len(texts))}

	for i, text := range texts {
		result, ok := fuzzy.Match(query, text)
		summary.Results[i] = matchOutput{Text: text, Matched: ok, Score: result.Score, Indices: result.Indices}
	}

	best, ok := fuzzy.MatchFields(query, texts)
	if !ok {
		return summary
	}
	for i := range summary.Results {
		if summary.Results[i].Matched && summary.Results[i].Score == best.Score {
			summary.Best = &summary.Results[i]
			break
		}
	}

	return summary
}
