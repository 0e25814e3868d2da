// Package cmd defines the CLI commands for the shopscraper executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shopscraper",
		Short: "Scrapes Shopify storefronts into a schema.org product feed.",
		Long: `shopscraper resolves a storefront's sitemap tree, fetches every
product page concurrently, extracts normalized product records from the
embedded structured data (falling back to CSS selectors and an LLM when
needed), and writes a single schema.org ItemList JSON document.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")

	cmd.AddCommand(newRunCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	// Environment from a local .env file, if present.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
