package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "case-archiver",
		Short: "Case Archiver - Incremental batch archival of closed cases",
		Long: `Case Archiver transfers the documents of closed administrative cases
from the case management system into the long-term archive. Runs cover a
date window of closing dates, every document is archived exactly once, and
failed runs are recoverable by rerun.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
