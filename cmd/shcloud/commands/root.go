// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing, flag binding, and validation. Command execution is delegated
// to handler functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the shcloud CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shcloud",
		Short: "Reconcile SiteHost cloud resources against a manifest",
	}

	cmd.AddCommand(Apply())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
