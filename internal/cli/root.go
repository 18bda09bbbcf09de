// Package cli wires the conductorctl command surface. This is the only
// layer allowed to turn an error into a process exit; everything below
// it returns typed errors.
package cli

import (
	"github.com/spf13/cobra"
)

type globalOpts struct {
	dir string
}

// Execute runs the root command. The caller exits non-zero on error;
// cobra has already printed it.
func Execute(version string) error {
	return NewRootCmd(version).Execute()
}

// NewRootCmd builds the full conductorctl command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &globalOpts{}

	root := &cobra.Command{
		Use:   "conductorctl",
		Short: "Create, run and administer local conductor setups",
		Long: `conductorctl manages independent local conductor setups: generate
them into throwaway directories, keep their paths in a manifest in the
working directory, run them, issue admin calls against them, and clean
them up, all by registry index.`,
		SilenceUsage: true,
		Version:      version,
	}
	root.SetVersionTemplate(`{{printf "conductorctl version %s\n" .Version}}`)
	root.PersistentFlags().StringVar(&opts.dir, "dir", ".", "directory holding the setup registry manifest")

	root.AddCommand(newGenerateCmd(opts))
	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newCallCmd(opts))
	root.AddCommand(newListCmd(opts))
	root.AddCommand(newCleanCmd(opts))
	return root
}
