package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"conductorctl/internal/admin"
	"conductorctl/internal/registry"
)

func newCallCmd(opts *globalOpts) *cobra.Command {
	var (
		indexList string
		binary    string
	)

	cmd := &cobra.Command{
		Use:   "call",
		Short: "Issue an admin request to running (or launched-for-the-call) setups",
		Long: `Call issues one admin request per selected setup. A setup whose
conductor is already running is reused through its recorded admin port;
otherwise one is launched for the call and shut down afterwards.

Without --index the registry must contain exactly one setup.`,
	}
	cmd.PersistentFlags().StringVarP(&indexList, "index", "i", "", "comma-separated registry indices (default: the sole entry)")
	cmd.PersistentFlags().StringVar(&binary, "conductor", "conductord", "conductor binary to launch if needed")

	doCall := func(cmd *cobra.Command, req admin.Request) error {
		indices, err := parseIndexList(indexList)
		if err != nil {
			return err
		}

		reg := registry.Open(opts.dir)
		var targets []registry.Entry
		if len(indices) == 0 {
			entries, err := reg.List()
			if err != nil {
				return err
			}
			entry, err := soleEntry(entries)
			if err != nil {
				return err
			}
			targets = []registry.Entry{entry}
		} else {
			targets, err = reg.Select(indices)
			if err != nil {
				return err
			}
		}

		var errs []error
		for _, entry := range targets {
			if err := callOne(cmd, entry, binary, req); err != nil {
				errs = append(errs, fmt.Errorf("setup %d: %w", entry.Index, err))
			}
		}
		return errors.Join(errs...)
	}

	sub := func(use, short string, build func(cmd *cobra.Command, args []string) (admin.Request, error), cobraArgs cobra.PositionalArgs) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobraArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				req, err := build(cmd, args)
				if err != nil {
					return err
				}
				return doCall(cmd, req)
			},
		}
	}

	cmd.AddCommand(sub("list-cells", "List running cells", func(*cobra.Command, []string) (admin.Request, error) {
		return admin.ListCells(), nil
	}, cobra.NoArgs))
	cmd.AddCommand(sub("list-dnas", "List installed DNAs", func(*cobra.Command, []string) (admin.Request, error) {
		return admin.ListDNAs(), nil
	}, cobra.NoArgs))
	cmd.AddCommand(sub("list-apps", "List installed apps", func(*cobra.Command, []string) (admin.Request, error) {
		return admin.ListApps(), nil
	}, cobra.NoArgs))
	cmd.AddCommand(sub("generate-agent-key", "Generate a fresh agent key", func(*cobra.Command, []string) (admin.Request, error) {
		return admin.GenerateAgentKey(), nil
	}, cobra.NoArgs))
	cmd.AddCommand(sub("sys-time", "Query the conductor's clock", func(*cobra.Command, []string) (admin.Request, error) {
		return admin.SysTime(), nil
	}, cobra.NoArgs))

	installApp := sub("install-app DNA_PATH...", "Install an app from DNA paths", nil, cobra.MinimumNArgs(1))
	installAppID := installApp.Flags().String("app-id", "test-app", "app id to install under")
	installAgent := installApp.Flags().String("agent-key", "", "existing agent key (default: conductor mints one)")
	installApp.RunE = func(cmd *cobra.Command, args []string) error {
		return doCall(cmd, admin.InstallApp(admin.InstallAppArgs{
			AppID:    *installAppID,
			AgentKey: *installAgent,
			DNAPaths: args,
		}))
	}
	cmd.AddCommand(installApp)

	attach := sub("attach-app-port", "Attach an app interface port", nil, cobra.NoArgs)
	attachPort := attach.Flags().Int("port", 0, "app port to attach (0: conductor picks)")
	attach.RunE = func(cmd *cobra.Command, args []string) error {
		return doCall(cmd, admin.AttachAppPort(admin.AttachAppPortArgs{Port: *attachPort}))
	}
	cmd.AddCommand(attach)

	return cmd
}

// callOne resolves one setup to a live conductor, issues the request
// through a fresh client, and reports the response. A conductor
// launched for the call is killed afterwards; an attached one is left
// running.
func callOne(cmd *cobra.Command, entry registry.Entry, binary string, req admin.Request) error {
	ctx := cmd.Context()
	tgt, err := acquireTarget(ctx, entry, binary, 0)
	if err != nil {
		return err
	}
	defer tgt.release()

	client, err := tgt.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	resp, err := client.Call(req)
	if err != nil {
		return err
	}
	msgf(cmd, "%d: %s", entry.Index, renderResponse(resp))
	return nil
}

func renderResponse(resp admin.Response) string {
	if len(resp.Data) == 0 {
		return resp.Type
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, resp.Data, "", "  "); err != nil {
		return fmt.Sprintf("%s %s", resp.Type, string(resp.Data))
	}
	return fmt.Sprintf("%s %s", resp.Type, pretty.String())
}
