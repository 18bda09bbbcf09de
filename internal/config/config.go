// Package config synthesizes and loads per-setup conductor configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the config file written inside every setup directory.
const FileName = "conductor.toml"

// Supported network transports. The value is passed through to the
// conductor; this tool does not interpret it beyond validation.
const (
	NetworkQUIC = "quic"
	NetworkMem  = "mem"
)

// Conductor is one setup's runtime configuration.
type Conductor struct {
	ID          string   `toml:"id"`
	AdminPort   int      `toml:"admin_port"`
	Network     string   `toml:"network"`
	KeystoreDir string   `toml:"keystore_dir"`
	DataDir     string   `toml:"data_dir"`
	Bootstrap   []string `toml:"bootstrap,omitempty"`
}

// Default returns the configuration written for freshly generated setups.
// AdminPort 0 asks the conductor for an ephemeral port, announced on stdout.
func Default(id string) Conductor {
	return Conductor{
		ID:          id,
		AdminPort:   0,
		Network:     NetworkQUIC,
		KeystoreDir: "keystore",
		DataDir:     "databases",
	}
}

// Write stores cfg as the setup's conductor.toml.
func Write(setupPath string, cfg Conductor) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(setupPath, FileName))
	if err != nil {
		return fmt.Errorf("config write failed (%s): %w", setupPath, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("config encode failed (%s): %w", setupPath, err)
	}
	return nil
}

// Load reads a setup's conductor.toml, applying defaults for omitted fields.
func Load(setupPath string) (Conductor, error) {
	path := filepath.Join(setupPath, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return Conductor{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	var cfg Conductor
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Conductor{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if cfg.ID == "" {
		cfg.ID = filepath.Base(setupPath)
	}
	if cfg.Network == "" {
		cfg.Network = NetworkQUIC
	}
	if cfg.KeystoreDir == "" {
		cfg.KeystoreDir = "keystore"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "databases"
	}
	if err := Validate(cfg); err != nil {
		return Conductor{}, err
	}
	return cfg, nil
}

// Validate checks required fields and the transport name.
func Validate(cfg Conductor) error {
	if strings.TrimSpace(cfg.ID) == "" {
		return fmt.Errorf("conductor config missing id")
	}
	if cfg.AdminPort < 0 || cfg.AdminPort > 65535 {
		return fmt.Errorf("conductor config admin_port out of range: %d", cfg.AdminPort)
	}
	switch cfg.Network {
	case NetworkQUIC, NetworkMem:
	default:
		return fmt.Errorf("conductor config unknown network %q", cfg.Network)
	}
	if strings.TrimSpace(cfg.KeystoreDir) == "" {
		return fmt.Errorf("conductor config missing keystore_dir")
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return fmt.Errorf("conductor config missing data_dir")
	}
	return nil
}
