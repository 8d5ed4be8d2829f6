package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())

	params := cfg.EscrowParams()
	require.Equal(t, int64(10), params.BondMultiplier)
	require.Equal(t, int64(2), params.DepositMultiplier)
	require.Equal(t, int64(86_400), params.TTLSeconds)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "escrow.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
Service = "patchdao-escrow"
Env = "staging"
BondMultiplier = 20
DepositMultiplier = 3
ContractTTLSeconds = 3600
AuditDir = "/var/lib/patchdao/audit"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "staging", cfg.Env)
	require.Equal(t, int64(20), cfg.BondMultiplier)
	require.Equal(t, int64(3), cfg.DepositMultiplier)
	require.Equal(t, int64(3600), cfg.ContractTTLSeconds)
	require.Equal(t, "/var/lib/patchdao/audit", cfg.AuditDir)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "escrow.toml")
	require.NoError(t, os.WriteFile(path, []byte("BountyMultiplier = 1\n"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsUnsafeEconomics(t *testing.T) {
	cases := map[string]string{
		"deposit above bond": "BondMultiplier = 2\nDepositMultiplier = 5\n",
		"zero bond":          "BondMultiplier = 0\n",
		"zero ttl":           "ContractTTLSeconds = 0\n",
		"blank service":      "Service = \" \"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "escrow.toml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
			_, err := Load(path)
			require.Error(t, err)
		})
	}
}
