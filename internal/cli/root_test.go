package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rwtracker/internal/model"
	"github.com/roach88/rwtracker/internal/store"
)

// runCLI executes the command tree with opts and returns stdout and stderr.
func runCLI(t *testing.T, opts *RootOptions, args ...string) (string, string, error) {
	t.Helper()
	if opts == nil {
		opts = &RootOptions{}
	}
	cmd := newRootCommand(opts)
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// seedDB creates a database with the given parties (name -> terms) and
// records, and returns its path.
func seedDB(t *testing.T, parties map[string][]string, records ...model.Record) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	for _, name := range []string{"Acme", "Globex"} {
		terms, ok := parties[name]
		if !ok {
			continue
		}
		id, err := st.AddParty(ctx, name, []string{"soc@" + name + ".example"})
		require.NoError(t, err)
		for _, term := range terms {
			_, err := st.AddTerm(ctx, id, term)
			require.NoError(t, err)
		}
	}
	_, err = st.UpsertRecords(ctx, records)
	require.NoError(t, err)
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "rwtracker", cmd.Use)
	assert.Contains(t, cmd.Long, "exactly once")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{
		"watch", "match", "backfill", "import-parties", "import-terms",
		"list-parties", "list-matches", "match-history",
	}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)

	require.NotNil(t, cmd.PersistentFlags().Lookup("db"))
}

func TestWatchCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	watchCmd, _, err := cmd.Find([]string{"watch"})
	require.NoError(t, err)

	interval := watchCmd.Flags().Lookup("interval")
	require.NotNil(t, interval)
	assert.Equal(t, "0s", interval.DefValue)
	require.NotNil(t, watchCmd.Flags().Lookup("once"))
	require.NotNil(t, watchCmd.Flags().Lookup("metrics-listen"))
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := runCLI(t, nil, "list-parties", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestExecute_ExitCodes(t *testing.T) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	dbPath := seedDB(t, nil)

	code := Execute([]string{"list-parties", "--db", dbPath}, stdout, stderr)
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout.String(), "No parties registered.")

	stdout.Reset()
	stderr.Reset()
	missing := filepath.Join(t.TempDir(), "missing", "dir", "test.db")
	code = Execute([]string{"list-parties", "--db", missing}, stdout, stderr)
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr.String(), "Error [E_COMMAND]: failed to open database")
}

func TestExecute_JSONErrorOnStdout(t *testing.T) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	code := Execute([]string{"import-parties", "--format", "json", filepath.Join(t.TempDir(), "nope.json")}, stdout, stderr)
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stdout.String(), `"status":"error"`)
	assert.Contains(t, stdout.String(), "failed to read import file")
}

func TestConfigFileDatabase(t *testing.T) {
	dbPath := seedDB(t, map[string][]string{"Acme": {"Acme Corp"}})
	cfgPath := filepath.Join(t.TempDir(), "rwtracker.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database: "+dbPath+"\n"), 0o600))

	stdout, _, err := runCLI(t, nil, "list-parties", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "[1] Acme")
}

func TestBadConfigFile(t *testing.T) {
	_, _, err := runCLI(t, nil, "list-parties", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}
