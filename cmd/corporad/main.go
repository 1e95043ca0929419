package main

import (
	"fmt"
	"os"

	"github.com/corpora-ai/corpora/internal/cli"
	"github.com/corpora-ai/corpora/internal/cli/commands"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "corporad",
		Short: "Corpora daemon and CLI",
		Long:  "Corpora daemon for running the document ingestion API and feeding documents through the pipeline",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(commands.ServeCmd())
	rootCmd.AddCommand(commands.IngestCmd())
	rootCmd.AddCommand(commands.WatchCmd())
	rootCmd.AddCommand(commands.StatsCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
