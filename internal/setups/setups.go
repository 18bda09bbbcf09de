// Package setups creates and destroys conductor setup directories and
// keeps the registry in step with them.
package setups

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"conductorctl/internal/auth"
	"conductorctl/internal/config"
	"conductorctl/internal/registry"
)

// GenerateOptions controls setup creation.
type GenerateOptions struct {
	Num     int    // number of setups; default 1
	Network string // transport passed through to the config; default quic
	BaseDir string // parent for setup dirs; default os.TempDir()
}

// Generate creates Num fresh setup directories, each with a conductor
// config and admin token, and appends them to the registry in creation
// order. Returns the new entries.
func Generate(reg *registry.Registry, opts GenerateOptions) ([]registry.Entry, error) {
	if opts.Num <= 0 {
		opts.Num = 1
	}
	if opts.Network == "" {
		opts.Network = config.NetworkQUIC
	}
	if opts.BaseDir == "" {
		opts.BaseDir = os.TempDir()
	}

	entries := make([]registry.Entry, 0, opts.Num)
	for i := 0; i < opts.Num; i++ {
		id := "conductor-" + uuid.NewString()
		dir := filepath.Join(opts.BaseDir, id)

		cfg := config.Default(id)
		cfg.Network = opts.Network

		if err := os.MkdirAll(filepath.Join(dir, cfg.KeystoreDir), 0o755); err != nil {
			return entries, fmt.Errorf("setups: create %s: %w", dir, err)
		}
		if err := os.MkdirAll(filepath.Join(dir, cfg.DataDir), 0o755); err != nil {
			return entries, fmt.Errorf("setups: create %s: %w", dir, err)
		}
		if err := config.Write(dir, cfg); err != nil {
			return entries, err
		}
		token, err := auth.NewToken()
		if err != nil {
			return entries, err
		}
		if err := auth.WriteTokenFile(dir, token); err != nil {
			return entries, err
		}

		idx, err := reg.Append(dir)
		if err != nil {
			return entries, err
		}
		log.Info().Int("index", idx).Str("setup", dir).Msg("setup generated")
		entries = append(entries, registry.Entry{Index: idx, Path: dir})
	}
	return entries, nil
}

// Clean deletes the selected setups' directories and drops their registry
// entries. Index validation is all-or-nothing against the current
// manifest; a directory that cannot be deleted keeps its entry so the
// operator can retry, and is reported alongside the others.
func Clean(reg *registry.Registry, indices []int) error {
	entries, err := reg.Select(indices)
	if err != nil {
		return err
	}
	return clean(reg, entries, false)
}

// CleanAll deletes every registered setup and empties the manifest.
func CleanAll(reg *registry.Registry) error {
	entries, err := reg.List()
	if err != nil {
		return err
	}
	return clean(reg, entries, true)
}

func clean(reg *registry.Registry, entries []registry.Entry, all bool) error {
	var errs []error
	removed := make([]int, 0, len(entries))
	for _, e := range entries {
		if err := os.RemoveAll(e.Path); err != nil {
			errs = append(errs, fmt.Errorf("setups: delete %d (%s): %w", e.Index, e.Path, err))
			continue
		}
		log.Info().Int("index", e.Index).Str("setup", e.Path).Msg("setup removed")
		removed = append(removed, e.Index)
	}

	if all && len(errs) == 0 {
		if err := reg.RemoveAll(); err != nil {
			errs = append(errs, err)
		}
	} else if len(removed) > 0 {
		if err := reg.Remove(removed); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
