package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/toolhub/cache"
	"github.com/jonwraymond/toolhub/capability"
	"github.com/jonwraymond/toolhub/dispatch"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TOOLHUB_CONFIG", "")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level", "off"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestToolsJSON(t *testing.T) {
	out, err := execute(t, "tools", "--json")
	require.NoError(t, err)

	var defs []dispatch.Definition
	require.NoError(t, json.Unmarshal([]byte(out), &defs))
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		assert.Equal(t, "function", d.Type)
		names = append(names, d.Function.Name)
	}
	assert.Contains(t, names, "get_time")
	assert.Contains(t, names, "plugin_loader")
	assert.Contains(t, names, capability.GetWeather)
}

func TestToolsTable(t *testing.T) {
	out, err := execute(t, "tools")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "handle_exit_intent")
}

func TestCallGetTime(t *testing.T) {
	out, err := execute(t, "call", "get_time")
	require.NoError(t, err)

	var resp dispatch.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, dispatch.ActionReqLLM, resp.Action)
	assert.NotEmpty(t, resp.Result)
}

func TestCallExitIsTerminal(t *testing.T) {
	out, err := execute(t, "call", "handle_exit_intent", `{"say_goodbye":"see you"}`)
	require.NoError(t, err)

	var resp dispatch.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, dispatch.ActionResponse, resp.Action)
	assert.Equal(t, "see you", resp.Response)
}

func TestCallUnknown(t *testing.T) {
	_, err := execute(t, "call", "no_such_capability")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown capability")
}

func TestConfigFileIsRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolhub.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dispatch:\n  functions: []\n"), 0o600))

	out, err := execute(t, "--config", path, "tools", "--json")
	require.NoError(t, err)
	assert.NotContains(t, out, capability.GetWeather)
}

func TestConfigFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolhub.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nonsense: true\n"), 0o600))

	_, err := execute(t, "--config", path, "tools")
	require.Error(t, err)
}

func TestCacheInfoLocal(t *testing.T) {
	out, err := execute(t, "cache-info")
	require.NoError(t, err)
	assert.Contains(t, out, "capacity")
	assert.Contains(t, out, cache.NamespaceWeather)
	assert.Contains(t, out, cache.NamespaceCity)
}

func TestCacheInfoRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/cache/stats", r.URL.Path)
		assert.Equal(t, "k1", r.Header.Get("X-API-Key"))
		_ = json.NewEncoder(w).Encode(cache.Stats{
			Namespaces:   []cache.NamespaceStats{{Name: "weather", Hits: 3, Misses: 1, HitRate: 0.75, Entries: 2}},
			TotalEntries: 2,
			MaxEntries:   50,
		})
	}))
	defer srv.Close()

	out, err := execute(t, "cache-info", "--server", srv.URL+"/", "--api-key", "k1")
	require.NoError(t, err)
	assert.Contains(t, out, "75.00%")
	assert.Contains(t, out, "2/50")
}

func TestCacheInfoRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := execute(t, "cache-info", "--server", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
