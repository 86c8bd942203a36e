package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/codeweave/internal/app"
	"github.com/dshills/codeweave/internal/semantic"
)

func newClassifyCmd(opts *rootOptions) *cobra.Command {
	var (
		req          semantic.Request
		alternatives int
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "classify <node-type>",
		Short: "Classify a parser node type into a semantic category",
		Example: "  codeweave classify function_declaration --language go\n" +
			"  codeweave classify expression_statement -l python --context 'if x > 0:'",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.NewWithoutStorage(opts.cfg, opts.logger)
			if err != nil {
				return err
			}

			req.NodeType = args[0]
			result, alts := a.Classifier.Alternatives(req, 0.3, alternatives)

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, result)
			}

			fmt.Fprintf(out, "%s (%s)\n", result.NodeType, orDash(result.Language))
			tw := newTable(out)
			fmt.Fprintf(tw, "  category\t%s\n", result.Category)
			fmt.Fprintf(tw, "  rank\t%s\n", result.Rank)
			fmt.Fprintf(tw, "  confidence\t%.2f (%s)\n", result.Confidence, result.Grade())
			fmt.Fprintf(tw, "  phase\t%s\n", result.Phase)
			fmt.Fprintf(tw, "  importance\t%.3f\n", result.Importance())
			if result.MatchedPattern != "" {
				fmt.Fprintf(tw, "  pattern\t%s\n", result.MatchedPattern)
			}
			for _, alt := range alts {
				fmt.Fprintf(tw, "  alternative\t%s %.2f\n", alt.Category, alt.Confidence)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&req.Language, "language", "l", "", "source language of the node")
	cmd.Flags().StringVar(&req.Context, "context", "", "surrounding source text")
	cmd.Flags().StringVar(&req.ParentType, "parent", "", "node type of the parent node")
	cmd.Flags().StringSliceVar(&req.SiblingTypes, "siblings", nil, "node types of sibling nodes")
	cmd.Flags().IntVar(&alternatives, "alternatives", 3, "alternative categories to list for low-confidence results")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("language")
	return cmd
}
