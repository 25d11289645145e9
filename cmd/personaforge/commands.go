package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/personaforge/internal/config"
	"github.com/kalambet/personaforge/internal/gemini"
	"github.com/kalambet/personaforge/internal/generator"
	"github.com/kalambet/personaforge/internal/persona"
	"github.com/kalambet/personaforge/internal/questionnaire"
)

// --- generate ---

var generateCmd = &cobra.Command{
	Use:   "generate <input.csv>",
	Short: "Generate personas from a questionnaire CSV in one shot",
	Long: `Generate personas from a questionnaire CSV in one shot.

Parses the input, calls the Gemini API, and writes the persona export CSV
next to the input unless --output is given.

Examples:
  personaforge generate questionnaire.csv
  personaforge generate answers.csv --question-col Prompt --answer-col Response
  personaforge generate questionnaire.csv --output personas.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]
		output, _ := cmd.Flags().GetString("output")
		sectionCol, _ := cmd.Flags().GetString("section-col")
		questionCol, _ := cmd.Flags().GetString("question-col")
		answerCol, _ := cmd.Flags().GetString("answer-col")

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(input)
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		stepf("Parsing %s...", input)
		doc, err := questionnaire.Parse(string(data), questionnaire.Columns{
			Section:  sectionCol,
			Question: questionCol,
			Answer:   answerCol,
		})
		if err != nil {
			return fmt.Errorf("parsing questionnaire: %w", err)
		}
		statusf("Records", "%d", len(doc.Records))
		if client := doc.ClientName(); client != "" {
			statusf("Client", "%s", client)
		}
		if product := doc.ProductName(); product != "" {
			statusf("Product", "%s", product)
		}

		ctx := cmd.Context()
		llm, err := gemini.NewClient(ctx, cfg.Gemini)
		if err != nil {
			return fmt.Errorf("creating Gemini client: %w", err)
		}
		gen := generator.New(llm, cfg.Generator.MinPersonas, cfg.Generator.MaxPersonas)

		stepf("Generating personas with %s...", cfg.Gemini.Model)
		personas, err := gen.Generate(ctx, doc)
		if err != nil {
			failf("Generation failed: %v", err)
			return err
		}
		statusf("Personas", "%d", len(personas))
		for _, p := range personas {
			statusf(string(p.Type), "%s", p.Name)
		}

		if output == "" {
			output = defaultOutputPath(input, time.Now())
		}

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()

		meta := persona.ExportMeta{
			ClientName:  doc.ClientName(),
			ProductName: doc.ProductName(),
		}
		if err := persona.WriteCSV(f, personas, meta); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}

		successf("Wrote %s", output)
		return nil
	},
}

func init() {
	generateCmd.Flags().String("output", "", "output CSV path (default: personas_<input>_<timestamp>.csv)")
	generateCmd.Flags().String("section-col", "", "section column label (default: Section)")
	generateCmd.Flags().String("question-col", "", "question column label (default: Question)")
	generateCmd.Flags().String("answer-col", "", "answer column label (default: Answer)")
}

// defaultOutputPath derives the export path from the input file name, placed
// in the same directory.
func defaultOutputPath(input string, now time.Time) string {
	dir := filepath.Dir(input)
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name := fmt.Sprintf("personas_%s_%s.csv", stem, now.Format("20060102_150405"))
	return filepath.Join(dir, name)
}

// --- terminal output ---

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiRed   = "\033[31m"
	ansiGreen = "\033[32m"
	ansiCyan  = "\033[36m"
)

// paint wraps s in an ANSI code unless --no-color is set.
func paint(code, s string) string {
	if noColor {
		return s
	}
	return code + s + ansiReset
}

func stepf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, paint(ansiCyan, "→ "+fmt.Sprintf(format, args...)))
}

func successf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, paint(ansiGreen, "✓ "+fmt.Sprintf(format, args...)))
}

func failf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, paint(ansiRed, "✗ "+fmt.Sprintf(format, args...)))
}

func statusf(label, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "  %s %s\n", paint(ansiBold, label+":"), fmt.Sprintf(format, args...))
}
