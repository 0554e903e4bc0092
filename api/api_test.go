package api_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/attemptgen/api"
	"github.com/TFMV/attemptgen/metrics"
	"github.com/TFMV/attemptgen/pkg/attempt"
	"github.com/TFMV/attemptgen/pkg/schema"
)

func newServer(t *testing.T) *api.Server {
	t.Helper()
	s := api.NewServer(api.ServerOptions{Port: "3000"})
	require.NotNil(t, s, "Expected a non-nil server instance")
	return s
}

func get(t *testing.T, s *api.Server, path string) (int, []byte) {
	t.Helper()
	resp, err := s.GetApp().Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

// TestHealthEndpoint checks if the /health endpoint returns "OK"
func TestHealthEndpoint(t *testing.T) {
	code, body := get(t, newServer(t), "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", string(body))
}

// versionResponse is used for JSON unmarshalling in the /version endpoint test
type versionResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Build   string `json:"build"`
	Time    string `json:"time"`
}

func TestVersionEndpoint(t *testing.T) {
	code, body := get(t, newServer(t), "/version")
	require.Equal(t, http.StatusOK, code)

	var v versionResponse
	require.NoError(t, json.Unmarshal(body, &v))
	assert.Equal(t, "attemptgen", v.Service)
	assert.NotEmpty(t, v.Version)
	assert.NotEmpty(t, v.Build)
	assert.NotEmpty(t, v.Time)
}

func TestSchemaEndpoint(t *testing.T) {
	s := newServer(t)

	code, body := get(t, s, "/schema")
	require.Equal(t, http.StatusOK, code)
	var file schema.ColumnFile
	require.NoError(t, json.Unmarshal(body, &file))
	require.Len(t, file.Columns, attempt.NumColumns)
	assert.Equal(t, "payment_id", file.Columns[0].Name)
	assert.False(t, file.Columns[0].Nullable)
	assert.Equal(t, "profile_id", file.Columns[attempt.NumColumns-1].Name)

	code, body = get(t, s, "/schema?format=yaml")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), "- name: payment_id")

	code, _ = get(t, s, "/schema?format=xml")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRandomAttemptEndpoint(t *testing.T) {
	s := newServer(t)

	decode := func(body []byte) map[string]any {
		var m map[string]any
		require.NoError(t, json.Unmarshal(body, &m))
		return m
	}

	code, body := get(t, s, "/attempts/random?seed=7")
	require.Equal(t, http.StatusOK, code)
	first := decode(body)
	assert.Len(t, first, attempt.NumColumns)
	require.IsType(t, "", first["payment_id"])
	assert.Len(t, first["payment_id"], 30)

	// Identifiers come only from the seeded stream, so they replay.
	_, body = get(t, s, "/attempts/random?seed=7")
	again := decode(body)
	assert.Equal(t, first["payment_id"], again["payment_id"])
	assert.Equal(t, first["attempt_id"], again["attempt_id"])

	code, body = get(t, s, "/attempts/random")
	require.Equal(t, http.StatusOK, code)
	assert.NotEqual(t, first["payment_id"], decode(body)["payment_id"])

	code, body = get(t, s, "/attempts/random?seed=minus-one")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), "seed must be an unsigned integer")
}

type paramView struct {
	Index  int    `json:"index"`
	Column string `json:"column"`
	Value  any    `json:"value"`
}

func TestRandomParamsEndpoint(t *testing.T) {
	code, body := get(t, newServer(t), "/attempts/random/params?seed=11")
	require.Equal(t, http.StatusOK, code)

	var list []paramView
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, attempt.NumColumns)
	for i, p := range list {
		assert.Equal(t, i, p.Index)
		assert.Equal(t, attempt.Columns()[i], p.Column)
	}
	// Canonical policy binds the status by name.
	assert.Equal(t, "Started", list[3].Value)
}

func TestMetricsEndpoint(t *testing.T) {
	collector, err := metrics.NewCollector("test", "")
	require.NoError(t, err)
	s := api.NewServer(api.ServerOptions{Collector: collector})

	get(t, s, "/attempts/random?seed=1")
	get(t, s, "/attempts/random?seed=2")

	code, body := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, code)
	out := string(body)
	assert.Contains(t, out, "attemptgen_records_generated_total 2")
	assert.True(t, strings.Contains(out, `attemptgen_step_total{status="success",step="generate"} 2`), out)
}

// TestShutdown verifies that calling Shutdown on the server does not return an error
func TestShutdown(t *testing.T) {
	err := newServer(t).Shutdown(context.Background())
	assert.NoError(t, err, "Expected no error calling Shutdown on server")
}
