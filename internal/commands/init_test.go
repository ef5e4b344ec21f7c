package commands_test

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finstate/internal/config"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "finstate-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "finstate")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/finstate")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

// runFinstate runs the binary in a scratch directory with FINSTATE_*
// variables cleared. It returns stdout, and stderr folded into the error.
func runFinstate(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = t.TempDir()
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, "FINSTATE_") {
			cmd.Env = append(cmd.Env, kv)
		}
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.String(), errors.New(err.Error() + ": " + stderr.String())
	}
	return stdout.String(), nil
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	out, err := runFinstate(t, "init", dir, "--name", "Test Biz")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized Test Biz")

	expectedDirs := []string{
		"ledger",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range expectedDirs {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
	_, err = os.Stat(filepath.Join(dir, "import", ".gitkeep"))
	assert.NoError(t, err)
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	_, err := runFinstate(t, "init", dir, "--name", "Acme, Inc.", "--currency", "eur", "--opening-cash", "2500.50")
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "Acme, Inc.", cfg.Company.Name)
	assert.Equal(t, "acme-inc", cfg.Company.ID)
	assert.Equal(t, "EUR", cfg.Company.Currency)
	assert.Equal(t, "2500.5", cfg.Reporting.OpeningCash.String())
	assert.Equal(t, "month", cfg.Reporting.Granularity)
	assert.Equal(t, "chase", cfg.Import.Format)
}

func TestInit_RepoFlag(t *testing.T) {
	dir := t.TempDir()
	_, err := runFinstate(t, "--repo", dir, "init", "--name", "Test Biz")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, config.FileName))
	assert.NoError(t, err)
}

func TestInit_Gitignore(t *testing.T) {
	dir := t.TempDir()
	_, err := runFinstate(t, "init", dir, "--name", "Test Biz")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	contents := string(data)

	for _, pattern := range []string{".env", "import/processed/"} {
		assert.Contains(t, contents, pattern, ".gitignore should contain %s", pattern)
	}
}

func TestInit_RequiresName(t *testing.T) {
	dir := t.TempDir()
	_, err := runFinstate(t, "init", dir)
	require.Error(t, err, "init without --name should fail")
}

func TestInit_RefusesExistingRepo(t *testing.T) {
	dir := t.TempDir()
	_, err := runFinstate(t, "init", dir, "--name", "Test Biz")
	require.NoError(t, err)

	_, err = runFinstate(t, "init", dir, "--name", "Other Biz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInit_BadOpeningCash(t *testing.T) {
	_, err := runFinstate(t, "init", t.TempDir(), "--name", "Test Biz", "--opening-cash", "lots")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--opening-cash")
}

func TestVersion(t *testing.T) {
	out, err := runFinstate(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev (commit: none")
}
