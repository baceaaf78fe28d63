package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"schemakit/internal/erd"
)

var (
	appName    string
	outputPath string
	pretty     bool
)

var rootCmd = &cobra.Command{
	Use:   "erdconvert <graph.json>",
	Short: "Convert an ERD graph to a schema definition result",
	Long: `erdconvert reads an ERD graph JSON file and converts it into model
descriptors, printing the full conversion result as JSON. Warnings go to
stderr; a result with validation errors exits non-zero.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.Flags().StringVarP(&appName, "app", "a", "app", "application name qualifying generated models")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write result JSON to file instead of stdout")
	rootCmd.Flags().BoolVar(&pretty, "pretty", true, "indent the result JSON")
	rootCmd.SilenceUsage = true
}

func runConvert(cmd *cobra.Command, args []string) error {
	graphJSON, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read graph file: %w", err)
	}

	graph, err := erd.ParseGraph(graphJSON)
	if err != nil {
		return fmt.Errorf("failed to parse ERD graph: %w", err)
	}

	result := erd.ConvertGraph(graph, appName)

	for _, warning := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}

	var out []byte
	if pretty {
		out, err = json.MarshalIndent(result, "", "  ")
	} else {
		out, err = json.Marshal(result)
	}
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	out = append(out, '\n')

	if outputPath != "" {
		if err := os.WriteFile(outputPath, out, 0o644); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	} else {
		os.Stdout.Write(out)
	}

	if !result.IsValid {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "error: %s\n", e)
		}
		return fmt.Errorf("conversion produced %d validation errors", len(result.Errors))
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
