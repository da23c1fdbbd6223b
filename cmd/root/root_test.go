package root_test

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxtally/deductions/cmd/root"
)

func init() {
	root.Init()
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "taxtally", root.Cmd.Use)
	assert.Contains(t, root.Cmd.Short, "ATO tax deductions")
	assert.NotNil(t, root.Cmd.Run)
	assert.NotNil(t, root.Cmd.PersistentPreRunE)
	assert.NotNil(t, root.Cmd.PersistentPostRun)
}

func TestRootCommand_Flags(t *testing.T) {
	flags := root.Cmd.PersistentFlags()
	require.NotNil(t, flags.Lookup("input"))
	assert.Equal(t, "i", flags.Lookup("input").Shorthand)
	require.NotNil(t, flags.Lookup("output"))
	assert.Equal(t, "o", flags.Lookup("output").Shorthand)
	for _, name := range []string{"config", "log-level", "log-format", "storage"} {
		assert.NotNil(t, flags.Lookup(name), name)
	}
}

func TestRootCommand_Run(t *testing.T) {
	assert.NotPanics(t, func() {
		root.Cmd.Run(&cobra.Command{}, []string{})
	})
}

func TestPersistentHooks_BuildAndReleaseContainer(t *testing.T) {
	t.Setenv("TAXTALLY_STORAGE_DRIVER", "memory")
	t.Setenv("TAXTALLY_SEED_MERCHANTS_FILE", "does-not-exist.yaml")
	t.Setenv("TAXTALLY_SEED_ANZSIC_FILE", "does-not-exist.yaml")
	t.Setenv("TAXTALLY_AI_ENABLED", "false")
	t.Chdir(t.TempDir())

	original := root.AppContainer
	defer func() { root.AppContainer = original }()

	cmd := &cobra.Command{}
	require.NoError(t, root.Cmd.PersistentPreRunE(cmd, nil))
	require.NotNil(t, root.GetContainer())
	require.NotNil(t, root.GetConfig())
	assert.Equal(t, "memory", root.GetConfig().Storage.Driver)

	root.Cmd.PersistentPostRun(cmd, nil)
	assert.Nil(t, root.GetContainer())
}

func TestPersistentPostRun_NilContainer(t *testing.T) {
	original := root.AppContainer
	defer func() { root.AppContainer = original }()

	root.AppContainer = nil
	assert.NotPanics(t, func() {
		root.Cmd.PersistentPostRun(&cobra.Command{}, nil)
	})
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, root.GetLogger())
}
