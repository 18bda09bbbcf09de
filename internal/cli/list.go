package cli

import (
	"github.com/spf13/cobra"

	"conductorctl/internal/registry"
)

func newListCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered setups with their indices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := registry.Open(opts.dir).List()
			if err != nil {
				return err
			}
			msgf(cmd, "setups contained in %q", registry.ManifestName)
			for _, e := range entries {
				msgf(cmd, "%d: %s", e.Index, e.Path)
			}
			if len(entries) == 0 {
				msgf(cmd, "(none)")
			}
			return nil
		},
	}
}
