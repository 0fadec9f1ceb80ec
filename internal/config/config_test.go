package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"censusapi/internal/sdmx"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "https://lustat.statec.lu", cfg.Source.BaseURL)
	assert.Equal(t, 120*time.Second, cfg.Source.Timeout)
	assert.Equal(t, []string{"Y_LT15"}, cfg.AgeBands.Children)
	assert.Equal(t, []string{"Y_GE85"}, cfg.AgeBands.EightyPlus)
	assert.Equal(t, []string{"_T", "M", "F"}, cfg.SexCategories)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9999"
source:
  timeout: 10s
datasets:
  - flow: LU1,DF_B1600,1.0
    key: ".A.."
    start_period: "2021"
age_bands:
  children: [Y_LT20]
  working_age: [Y20T64]
  seniors: [Y_GE65]
  eighty_plus: [Y_GE80]
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Source.Timeout)
	// Untouched keys keep their defaults.
	assert.Equal(t, "https://lustat.statec.lu", cfg.Source.BaseURL)
	assert.Equal(t, "./data/census.db", cfg.Database.Path)

	require.Len(t, cfg.Datasets, 1)
	assert.Equal(t, "LU1,DF_B1600,1.0", cfg.Datasets[0].Flow)
	assert.Equal(t, ".A..", cfg.Datasets[0].Key)
	assert.Equal(t, "2021", cfg.Datasets[0].StartPeriod)
	assert.Equal(t, []string{"Y20T64"}, cfg.AgeBands.WorkingAge)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CENSUS_ADDR", ":7070")
	t.Setenv("CENSUS_DB_PATH", "/tmp/census-test.db")
	t.Setenv("CENSUS_SOURCE_URL", "http://localhost:9000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "/tmp/census-test.db", cfg.Database.Path)
	assert.Equal(t, "http://localhost:9000", cfg.Source.BaseURL)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Addr = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Source.BaseURL = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Database.Path = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Datasets = append(cfg.Datasets, sdmx.Query{Key: ".A.."})
	assert.Error(t, cfg.Validate())
}
