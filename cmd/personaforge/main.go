package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "personaforge",
	Short: "Generate synthetic user personas from questionnaire CSV data",
	Long: `personaforge turns client questionnaire answers into synthetic user
personas via the Gemini API.

Run "personaforge serve" to start the HTTP and MCP servers, or
"personaforge generate <input.csv>" for a one-shot CSV-to-CSV run.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the personaforge version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("personaforge version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
