package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"conductorctl/internal/registry"
	"conductorctl/internal/setups"
)

func newCleanCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "clean [INDEX...]",
		Short: "Delete setups and drop them from the registry (all by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := registry.Open(opts.dir)

			if len(args) == 0 {
				if err := setups.CleanAll(reg); err != nil {
					return err
				}
				msgf(cmd, "all setups cleaned")
				return nil
			}

			indices := make([]int, 0, len(args))
			seen := make(map[int]struct{}, len(args))
			for _, arg := range args {
				idx, err := strconv.Atoi(arg)
				if err != nil || idx < 0 {
					return fmt.Errorf("cli: invalid index %q", arg)
				}
				if _, ok := seen[idx]; ok {
					continue
				}
				seen[idx] = struct{}{}
				indices = append(indices, idx)
			}
			if err := setups.Clean(reg, indices); err != nil {
				return err
			}
			msgf(cmd, "cleaned %d setup(s)", len(indices))
			return nil
		},
	}
}
