package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condense/internal/database"
	"condense/internal/settings"
)

const articleHTML = `<html><body>
<nav><p>Home | About | Contact us today</p></nav>
<article>
<p>The city council approved a new plan for bicycle lanes on Monday evening.</p>
<p>Construction will start in spring and is expected to take about two years.</p>
</article>
</body></html>`

func setupEnv(t *testing.T) string {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "db.sqlite")

	t.Setenv("STORE", "sqlite")
	t.Setenv("DB_PATH", dbPath)
	t.Setenv("EXTRACTOR", "visible")
	t.Setenv("LOG_LEVEL", "ERROR")

	return dbPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return stdout.String(), err
}

func TestOptionsSetWritesOnlySelectedModelKey(t *testing.T) {
	dbPath := setupEnv(t)

	_, err := execute(t, "options", "set", "--model", "cohere", "--api-key", "co-key-123456")
	require.NoError(t, err)

	out, err := execute(t, "options", "set", "--model", "openai", "--api-key", "sk-openai-abcdef")
	require.NoError(t, err)
	assert.Contains(t, out, "Options saved.")
	assert.Contains(t, out, "Model: openai")
	assert.Contains(t, out, "API key: ••••cdef")

	db, err := database.New(context.Background(), dbPath, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer db.Close()

	s, err := settings.Load(context.Background(), db.Settings(defaultProfile))
	require.NoError(t, err)
	assert.Equal(t, settings.Settings{
		SelectedModel: settings.ModelOpenAI,
		CohereAPIKey:  "co-key-123456",
		OpenAIAPIKey:  "sk-openai-abcdef",
	}, s)
}

func TestOptionsSetKeepsStoredKeyWithoutFlag(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "options", "set", "--model", "openai", "--api-key", "sk-openai-abcdef")
	require.NoError(t, err)

	_, err = execute(t, "options", "set", "--model", "cohere")
	require.NoError(t, err)

	out, err := execute(t, "options", "set", "--model", "openai")
	require.NoError(t, err)
	assert.Contains(t, out, "API key: ••••cdef")
}

func TestOptionsShowDefaults(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "options", "show")
	require.NoError(t, err)
	assert.Equal(t, "Model: cohere\nAPI key: (Enter API Key for Cohere)\n", out)
}

func TestOptionsSetRejectsUnknownModel(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "options", "set", "--model", "mistral")
	assert.Error(t, err)
}

func TestOptionsProfilesAreIsolated(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "options", "set", "--profile", "work", "--model", "openai", "--api-key", "sk-work-000000")
	require.NoError(t, err)

	out, err := execute(t, "options", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Model: cohere")
}

func TestSummarize(t *testing.T) {
	setupEnv(t)

	pageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer pageServer.Close()

	var gotAuth string
	cohereServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"Bike lanes are coming."}`))
	}))
	defer cohereServer.Close()

	t.Setenv("COHERE_BASE_URL", cohereServer.URL)

	_, err := execute(t, "options", "set", "--model", "cohere", "--api-key", "co-key-123456")
	require.NoError(t, err)

	output := filepath.Join(t.TempDir(), "page.html")

	out, err := execute(t, "summarize", pageServer.URL, "--output", output)
	require.NoError(t, err)
	assert.Equal(t, "Summarizing... 🧠\ntl;dr: Bike lanes are coming.\n", out)
	assert.Equal(t, "Bearer co-key-123456", gotAuth)

	html, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(html), `id="condense-summary-header"`))
	assert.Contains(t, string(html), "tl;dr: Bike lanes are coming.")
}

func TestSummarizeWithoutOptions(t *testing.T) {
	setupEnv(t)

	pageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer pageServer.Close()

	out, err := execute(t, "summarize", pageServer.URL)
	require.NoError(t, err)
	assert.Equal(t, "Please select a model and set its API key in the extension's options.\n", out)
}

func TestSummarizeFetchFailure(t *testing.T) {
	setupEnv(t)

	pageServer := httptest.NewServer(http.NotFoundHandler())
	defer pageServer.Close()

	_, err := execute(t, "summarize", pageServer.URL)
	assert.Error(t, err)
}
