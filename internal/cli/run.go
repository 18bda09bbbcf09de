package cli

import (
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"conductorctl/internal/registry"
)

func newRunCmd(opts *globalOpts) *cobra.Command {
	var (
		indexList string
		binary    string
		forcePort int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Launch registered setups and keep them alive until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			indices, err := parseIndexList(indexList)
			if err != nil {
				return err
			}
			entries, err := registry.Open(opts.dir).Select(indices)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				msgf(cmd, "no setups registered; run generate first")
				return nil
			}
			if forcePort > 0 && len(entries) > 1 {
				return fmt.Errorf("cli: --force-port needs exactly one selected setup, got %d", len(entries))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// One task per setup; each owns its handle exclusively.
			type outcome struct {
				entry  registry.Entry
				target *target
				err    error
			}
			outcomes := make([]outcome, len(entries))
			var wg sync.WaitGroup
			for i, entry := range entries {
				wg.Add(1)
				go func(i int, entry registry.Entry) {
					defer wg.Done()
					tgt, err := acquireTarget(ctx, entry, binary, forcePort)
					outcomes[i] = outcome{entry: entry, target: tgt, err: err}
				}(i, entry)
			}
			wg.Wait()

			running := make([]*target, 0, len(entries))
			failures := 0
			for _, oc := range outcomes {
				if oc.err != nil {
					// Report per setup; one failed launch must not abort the rest.
					failures++
					msgf(cmd, "%d: launch failed: %v", oc.entry.Index, oc.err)
					continue
				}
				if oc.target.handle == nil {
					msgf(cmd, "%d: already running on admin port %d", oc.entry.Index, oc.target.port)
				} else {
					msgf(cmd, "%d: conductor running, admin port %d", oc.entry.Index, oc.target.port)
				}
				running = append(running, oc.target)
			}
			if len(running) == 0 {
				return fmt.Errorf("cli: no setup could be launched (%d failure(s))", failures)
			}

			msgf(cmd, "interrupt to stop")
			<-ctx.Done()

			for _, tgt := range running {
				tgt.release()
			}
			msgf(cmd, "stopped")
			if failures > 0 {
				return fmt.Errorf("cli: %d setup(s) failed to launch", failures)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&indexList, "index", "i", "", "comma-separated registry indices (default: all)")
	cmd.Flags().StringVar(&binary, "conductor", "conductord", "conductor binary to launch")
	cmd.Flags().IntVar(&forcePort, "force-port", 0, "skip port discovery and assume this admin port")
	return cmd
}
