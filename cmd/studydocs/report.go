package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/thywilljoshua/study-docs/internal/ai"
	"github.com/thywilljoshua/study-docs/internal/models"
	"github.com/thywilljoshua/study-docs/internal/report"
)

func reportCmd(a *app) *cobra.Command {
	var resultPath string
	var answersPath string
	var pdfPath string
	var txtPath string
	var title string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a quiz report from a saved analysis",
		Long:  "Render a quiz report from an analysis written by `analyze -o`. Answers are a JSON object such as {\"0-1\": 2}. No backend call is made.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := readResult(resultPath)
			if err != nil {
				return err
			}
			answers := models.Answers{}
			if answersPath != "" {
				if err := readJSON(answersPath, &answers); err != nil {
					return err
				}
			}
			now := time.Now()

			if pdfPath != "" {
				var buf bytes.Buffer
				stats, err := report.RenderPDF(&buf, result, answers, report.Options{GeneratedAt: now, Title: title})
				if err != nil {
					return err
				}
				if err := writeFile(pdfPath, buf.Bytes()); err != nil {
					return err
				}
				a.logger.Info("pdf report written", "path", pdfPath, "pages", stats.Pages)
			}
			if txtPath != "" {
				var buf bytes.Buffer
				if err := report.RenderText(&buf, result, answers, now); err != nil {
					return err
				}
				if err := writeFile(txtPath, buf.Bytes()); err != nil {
					return err
				}
				a.logger.Info("text report written", "path", txtPath)
			}
			if pdfPath == "" && txtPath == "" {
				return report.RenderText(cmd.OutOrStdout(), result, answers, now)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&resultPath, "result", "", "analysis JSON file")
	cmd.Flags().StringVar(&answersPath, "answers", "", "answers JSON file")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "write a PDF report")
	cmd.Flags().StringVar(&txtPath, "txt", "", "write a text report (default: stdout when --pdf is not set)")
	cmd.Flags().StringVar(&title, "title", report.DefaultTitle, "PDF report title")
	_ = cmd.MarkFlagRequired("result")
	return cmd
}

// readResult applies the same checks as a fresh model response, so a
// hand-edited file cannot carry an out-of-range answer index into scoring.
func readResult(path string) (*models.AnalysisResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	result, err := ai.ParseAnalysis(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return result, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
