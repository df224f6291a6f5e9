package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  port: "9090"
  mode: release
database:
  driver: sqlite
  path: /tmp/propdao-test.db
auth:
  jwt_secret: dev-secret
  issuer: https://auth.example.com
  admin_allow_list:
    - admin-user
    - "0xAbC0000000000000000000000000000000000001"
investment:
  unit_price: "250.5"
chain:
  network: sepolia
  networks:
    sepolia:
      chain_id: 11155111
      rpc_url: http://localhost:8545
      contracts:
        dao:
          address: "0x00000000000000000000000000000000000000d0"
          abi_path: abi/dao.json
          block_num: 1200
task:
  interval: 15
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
	return file
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/propdao-test.db", cfg.Database.Path)
	assert.Equal(t, "dev-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, []string{"admin-user", "0xAbC0000000000000000000000000000000000001"}, cfg.Auth.AdminAllowList)
	assert.Equal(t, "250.5", cfg.Investment.UnitPrice)
	assert.Equal(t, 15, cfg.Task.Interval)

	// 未配置的项保留默认值
	assert.Equal(t, int64(500), cfg.Task.BatchSize)
	assert.Equal(t, int64(10), cfg.Upload.MaxSizeMB)
	assert.Equal(t, "info", cfg.Log.Level)

	network, ok := cfg.Chain.ActiveNetwork()
	require.True(t, ok)
	assert.Equal(t, int64(11155111), network.ChainId)
	assert.Equal(t, "http://localhost:8545", network.RpcUrl)
	dao, ok := network.Contracts["dao"]
	require.True(t, ok)
	assert.Equal(t, "0x00000000000000000000000000000000000000d0", dao.Address)
	assert.Equal(t, int64(1200), dao.BlockNum)
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := LoadFrom("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "100", cfg.Investment.UnitPrice)
	assert.Equal(t, 60, cfg.Task.Interval)
	assert.Equal(t, float64(5), cfg.RateLimit.RPS)

	_, ok := cfg.Chain.ActiveNetwork()
	assert.False(t, ok)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("PROPDAO_SERVER_PORT", "7070")
	t.Setenv("PROPDAO_INVESTMENT_UNIT_PRICE", "42")

	cfg, err := LoadFrom(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "42", cfg.Investment.UnitPrice)
}

func TestActiveNetworkUnknown(t *testing.T) {
	cfg := ChainConfig{Network: "mainnet", Networks: map[string]NetworkConfig{"sepolia": {}}}
	_, ok := cfg.ActiveNetwork()
	assert.False(t, ok)
}
