package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func analyzeCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "analyze <file>...",
		Short: "Summarize documents and generate a quiz per topic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.localSession(cmd.Context(), args)
			if err != nil {
				return err
			}
			result, err := s.Analyze(cmd.Context())
			if err != nil {
				return err
			}

			b, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			if out == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			}
			if err := writeFile(out, append(b, '\n')); err != nil {
				return err
			}
			a.logger.Info("analysis written", "path", out, "topics", len(result.Quizzes), "questions", result.QuestionCount())
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the analysis JSON to this file (default: stdout)")
	return cmd
}
