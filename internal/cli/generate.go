package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"conductorctl/internal/admin"
	"conductorctl/internal/registry"
	"conductorctl/internal/setups"
)

func newGenerateCmd(opts *globalOpts) *cobra.Command {
	var (
		appID   string
		num     int
		network string
		keep    bool
		binary  string
	)

	cmd := &cobra.Command{
		Use:     "generate [DNA_PATH...]",
		Aliases: []string{"gen", "g"},
		Short:   "Generate new conductor setups, optionally installing an app",
		Long: `Generate creates fresh setup directories (config, keystore, admin
token), registers them in the manifest, and, when DNA paths are given,
launches each conductor once to install the app before shutting it
back down. With --run the launched conductors stay up.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := registry.Open(opts.dir)
			entries, err := setups.Generate(reg, setups.GenerateOptions{
				Num:     num,
				Network: network,
			})
			if err != nil {
				return err
			}
			for _, e := range entries {
				msgf(cmd, "%d: %s", e.Index, e.Path)
			}
			if len(args) == 0 && !keep {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			targets := make([]*target, 0, len(entries))
			for _, entry := range entries {
				tgt, err := acquireTarget(ctx, entry, binary, 0)
				if err != nil {
					releaseAll(targets)
					return err
				}
				targets = append(targets, tgt)

				if len(args) > 0 {
					if err := installApp(ctx, cmd, tgt, appID, args); err != nil {
						releaseAll(targets)
						return err
					}
				}
			}

			if !keep {
				releaseAll(targets)
				return nil
			}

			msgf(cmd, "interrupt to stop")
			<-ctx.Done()
			releaseAll(targets)
			return nil
		},
	}

	cmd.Flags().StringVarP(&appID, "app-id", "a", "test-app", "app id used when installing DNAs")
	cmd.Flags().IntVarP(&num, "num", "n", 1, "number of setups to generate")
	cmd.Flags().StringVar(&network, "network", "quic", "network transport written into the config (quic|mem)")
	cmd.Flags().BoolVar(&keep, "run", false, "keep the launched conductors running")
	cmd.Flags().StringVar(&binary, "conductor", "conductord", "conductor binary to launch")
	return cmd
}

// installApp generates an agent key and installs the app on one target.
func installApp(ctx context.Context, cmd *cobra.Command, tgt *target, appID string, dnaPaths []string) error {
	client, err := tgt.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	resp, err := client.Call(admin.GenerateAgentKey())
	if err != nil {
		return err
	}
	agentKey, err := admin.AsAgentKey(resp)
	if err != nil {
		return err
	}

	resp, err = client.Call(admin.InstallApp(admin.InstallAppArgs{
		AppID:    appID,
		AgentKey: agentKey,
		DNAPaths: dnaPaths,
	}))
	if err != nil {
		return err
	}
	app, err := admin.AsInstalledApp(resp)
	if err != nil {
		return err
	}
	msgf(cmd, "%d: installed app %q with %d cell(s)", tgt.entry.Index, app.ID, len(app.Cells))
	return nil
}

func releaseAll(targets []*target) {
	for _, tgt := range targets {
		tgt.release()
	}
}
