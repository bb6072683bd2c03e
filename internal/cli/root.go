package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"batchloader/internal/config"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var cfg = config.New()

var rootCmd = &cobra.Command{
	Use:   "batchloader",
	Short: "Demonstrate batched, deduplicated data loading",
	Long: `batchloader collects concurrent by-key data requests into bulk fetches,
removing the N+1 query pattern from resolver-style code.

This CLI exercises the library against two sample backends:

Examples:
	# Resolve the in-memory book graph and show the bulk query log
	batchloader demo

	# Resolve GitHub repositories by name with one org listing per batch
	batchloader github --org my-org --repos alpha,beta

	# Print build info
	batchloader version`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, "verbose", false, "Enable verbose logging (prints every GitHub API call and full error details)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
