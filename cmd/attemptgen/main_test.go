package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/attemptgen/logger"
	"github.com/TFMV/attemptgen/metrics"
	"github.com/TFMV/attemptgen/pkg/attempt"
)

// execute runs the CLI with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ATTEMPTGEN_LOG_PATH", filepath.Join(t.TempDir(), "attemptgen.log"))
	t.Setenv("ATTEMPTGEN_LOG_LEVEL", "warn")
	t.Cleanup(logger.ResetLogger)

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "attemptgen "), out)
}

func decodeAll(t *testing.T, out string) []map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(out))
	var all []map[string]any
	for dec.More() {
		var m map[string]any
		require.NoError(t, dec.Decode(&m))
		all = append(all, m)
	}
	return all
}

func TestGenerateCommand(t *testing.T) {
	out, err := execute(t, "generate", "--seed", "5", "--count", "2")
	require.NoError(t, err)
	first := decodeAll(t, out)
	require.Len(t, first, 2)
	assert.Len(t, first[0], attempt.NumColumns)
	assert.NotEqual(t, first[0]["payment_id"], first[1]["payment_id"])

	out, err = execute(t, "generate", "--seed", "5", "--count", "2")
	require.NoError(t, err)
	again := decodeAll(t, out)
	assert.Equal(t, first[0]["payment_id"], again[0]["payment_id"])
	assert.Equal(t, first[1]["attempt_id"], again[1]["attempt_id"])

	_, err = execute(t, "generate", "--count", "0")
	assert.Error(t, err)
}

func TestGenerateParams(t *testing.T) {
	out, err := execute(t, "generate", "--seed", "6", "--params", "--policy", "uniform")
	require.NoError(t, err)

	var list []paramJSON
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, attempt.NumColumns)
	assert.Equal(t, "payment_id", list[0].Column)
	assert.Equal(t, 57, list[57].Index)
}

func TestSchemaCommand(t *testing.T) {
	out, err := execute(t, "schema")
	require.NoError(t, err)
	assert.Equal(t, attempt.NumColumns, strings.Count(out, "\n"))

	out, err = execute(t, "schema", "--format", "ddl", "--dialect", "postgres")
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS payment_attempt")
	assert.Contains(t, out, "PRIMARY KEY (payment_id, attempt_id)")

	_, err = execute(t, "schema", "--format", "toml")
	assert.Error(t, err)
}

func TestSchemaCheck(t *testing.T) {
	out, err := execute(t, "schema", "--format", "yaml")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "columns.yaml")
	require.NoError(t, os.WriteFile(path, []byte(out), 0o644))

	out, err = execute(t, "schema", "--check", path, "--strict")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema validation passed.")

	short := "columns:\n  - name: payment_id\n    type: string\n    nullable: false\n"
	require.NoError(t, os.WriteFile(path, []byte(short), 0o644))
	_, err = execute(t, "schema", "--check", path, "--strict")
	assert.Error(t, err)
}

func TestRunCommandSQLite(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ATTEMPTGEN_STORE_TYPE", "sqlite")
	t.Setenv("ATTEMPTGEN_STORE_URL", filepath.Join(dir, "attempts.db"))
	reportPath := filepath.Join(dir, "run.json")

	out, err := execute(t, "run", "--seed", "77", "--report-json", reportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "round trip PASS")
	assert.Contains(t, out, "seed=77")
	assert.Contains(t, out, "columns=58")
	assert.Contains(t, out, "payment_id")

	run, err := (&metrics.JSONMetricsStore{FilePath: reportPath}).Load()
	require.NoError(t, err)
	require.NotNil(t, run.RoundTrip)
	assert.True(t, run.RoundTrip.Status)
	require.NotNil(t, run.Seed)
	assert.Equal(t, uint64(77), *run.Seed)

	// A second attempt with another seed goes into the same table.
	out, err = execute(t, "run", "--seed", "78", "--quiet")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestStatsCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presence.json")
	out, err := execute(t, "stats", "--seed", "3", "--samples", "200", "--workers", "2", "--save", path)
	require.NoError(t, err)
	assert.Contains(t, out, "COLUMN")
	assert.Contains(t, out, "samples=200")
	assert.Contains(t, out, "seed=3")

	run, err := (&metrics.JSONMetricsStore{FilePath: path}).Load()
	require.NoError(t, err)
	require.NotNil(t, run.Presence)
	assert.Len(t, run.Presence.Columns, 48)
}

func TestExportAndInspect(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"attempts.parquet", "attempts.arrow"} {
		path := filepath.Join(dir, name)
		out, err := execute(t, "export", "--seed", "4", "--count", "12", "--batch-size", "5", "--output", path)
		require.NoError(t, err)
		assert.Contains(t, out, "wrote 12 records")

		out, err = execute(t, "inspect", path, "--limit", "2")
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(out, "\npayment_id "), out)
	}

	out, err := execute(t, "export", "--count", "2", "--output", filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "(json)")

	_, err = execute(t, "export", "--output", filepath.Join(dir, "a.csv"))
	assert.Error(t, err)
	_, err = execute(t, "inspect", filepath.Join(dir, "a.json"))
	assert.Error(t, err)
}

func TestPolicyFlagIgnoresCase(t *testing.T) {
	out, err := execute(t, "generate", "--seed", "2", "--policy", "Uniform")
	require.NoError(t, err)
	assert.Len(t, decodeAll(t, out), 1)
}

func TestInvalidConfig(t *testing.T) {
	_, err := execute(t, "generate", "--policy", "sometimes")
	assert.ErrorContains(t, err, "enum policy")

	t.Setenv("ATTEMPTGEN_STORE_TYPE", "cassandra")
	_, err = execute(t, "schema")
	assert.ErrorContains(t, err, "unknown store type")
}
