package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/loom/pkg/loom"
	"github.com/mesh-intelligence/loom/pkg/types"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"version", "serve", "snapshot", "wal", "export", "import"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestVersionCommand(t *testing.T) {
	flags = rootFlags{}
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "loom v"+loom.Version)
	assert.Contains(t, out.String(), modulePath)
}

func TestVersionCommandJSON(t *testing.T) {
	flags = rootFlags{}
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--json"})

	require.NoError(t, root.Execute())
	var got map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, loom.Version, got["version"])
}

func TestLoadConfigDefaults(t *testing.T) {
	flags = rootFlags{}
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Backend)
	assert.Equal(t, ".loom-db", cfg.DataDir)
	assert.Equal(t, "default", cfg.Namespace)
	assert.NotEmpty(t, cfg.BlobDir)
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	flags = rootFlags{backend: "memory", namespace: "team", dataDir: "/tmp/loom-test"}
	t.Cleanup(func() { flags = rootFlags{} })

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Backend)
	assert.Equal(t, "team", cfg.Namespace)
	assert.Equal(t, "/tmp/loom-test", cfg.DataDir)
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	_, err := openStore(types.Config{Backend: "redis", DataDir: "unused"})
	require.ErrorIs(t, err, types.ErrBackendUnknown)
}

func TestOpenStoreMemory(t *testing.T) {
	store, err := openStore(types.Config{Backend: types.BackendMemory, DataDir: "unused"})
	require.NoError(t, err)
	defer store.Close()

	p, err := store.Namespace("x")
	require.NoError(t, err)
	assert.NotNil(t, p)
}
