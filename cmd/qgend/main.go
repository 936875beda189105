package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/cli"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "qgend",
		Short: "Questions-generator daemon and CLI",
		Long:  "Daemon for ingesting lecture videos, transcribing them in size-bounded chunks, and generating questions",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IngestCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
