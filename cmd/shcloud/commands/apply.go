package commands

import (
	"github.com/spf13/cobra"

	"github.com/sitehostnz/shcloud/cmd/shcloud/handlers"
)

// Apply returns the command that reconciles the manifest against the
// SiteHost API.
//
// Optional flags:
//
//	--manifest, -f: Path to the manifest YAML file (default: shcloud.yaml)
//	--check: Report what would change without changing anything
//
// Environment variables:
//
//	SH_API_KEY: SiteHost API key (required)
//	SH_CLIENT_ID: SiteHost client id (required)
//	SH_API_ENDPOINT: API base URL (default: https://api.sitehost.nz/1.2)
func Apply() *cobra.Command {
	var manifestPath string
	var check bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create, update, or remove resources to match the manifest",
		Long: `Reconcile the declared resources against your SiteHost account.

DNS records are reconciled first, then servers, then Cloud Container
stacks, each in declaration order. Calls that enqueue provider-side
jobs block until the job completes.

Examples:
  # Apply shcloud.yaml from the current directory
  shcloud apply

  # Apply a specific manifest
  shcloud apply -f production.yaml

  # Show what would change without touching anything
  shcloud apply --check`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Apply(cmd.Context(), manifestPath, check)
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "f", "shcloud.yaml", "Path to the manifest file")
	cmd.Flags().BoolVar(&check, "check", false, "Report changes without applying them")

	return cmd
}
