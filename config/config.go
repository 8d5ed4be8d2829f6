package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"patchdao/native/escrow"
)

// Config carries the protocol economics and the ambient service settings.
type Config struct {
	Service            string `toml:"Service"`
	Env                string `toml:"Env"`
	BondMultiplier     int64  `toml:"BondMultiplier"`
	DepositMultiplier  int64  `toml:"DepositMultiplier"`
	ContractTTLSeconds int64  `toml:"ContractTTLSeconds"`
	AuditDir           string `toml:"AuditDir"`
}

// Default returns the configuration used when no file is present: 10x bond,
// 2x deposit, one-day contract TTL.
func Default() *Config {
	params := escrow.DefaultParams()
	return &Config{
		Service:            "patchdao-escrow",
		Env:                "local",
		BondMultiplier:     params.BondMultiplier,
		DepositMultiplier:  params.DepositMultiplier,
		ContractTTLSeconds: params.TTLSeconds,
		AuditDir:           "audit",
	}
}

// Load reads the configuration from the given path. A missing file yields the
// defaults rather than an error; a present file is validated strictly.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config: unknown key %s in %s", undecoded[0].String(), path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the economics and service settings.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil config")
	}
	if strings.TrimSpace(c.Service) == "" {
		return fmt.Errorf("config: Service must not be blank")
	}
	return c.EscrowParams().Validate()
}

// EscrowParams maps the config onto the escrow engine's parameter set.
func (c *Config) EscrowParams() escrow.Params {
	return escrow.Params{
		BondMultiplier:    c.BondMultiplier,
		DepositMultiplier: c.DepositMultiplier,
		TTLSeconds:        c.ContractTTLSeconds,
	}
}
