package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("NODE_ENV", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "3001", cfg.Port)
	require.Equal(t, ProviderGemini, cfg.LLMProvider)
	require.Equal(t, "gemini-flash-latest", cfg.GeminiModel)
	require.Equal(t, 6, cfg.HistoryLimit)
	require.Equal(t, 800, cfg.MaxReplyChars)
	require.Equal(t, 2000, cfg.MaxMessageLength)
	require.Equal(t, 30*time.Second, cfg.RequestTimeout)
	require.Equal(t, 24*time.Hour, cfg.BookingLedgerTTL)
	require.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	require.False(t, cfg.IsDevelopment())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "Development")
	t.Setenv("PORT", "8080")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", " sk-test ")
	t.Setenv("HISTORY_LIMIT", "4")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("ALLOWED_ORIGINS", "https://parker.example, http://localhost:5173")
	t.Setenv("PARAM_PREFIX", "/parker/")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.IsDevelopment())
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	require.Equal(t, "sk-test", cfg.LLMAPIKey())
	require.Equal(t, 4, cfg.HistoryLimit)
	require.Equal(t, 5*time.Second, cfg.RequestTimeout)
	require.Equal(t, []string{"https://parker.example", "http://localhost:5173"}, cfg.AllowedOrigins)
	require.Equal(t, "/parker", cfg.ParamPrefix)
}

func TestLoad_NodeEnvFallback(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("NODE_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.IsDevelopment())
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "claude")
	t.Setenv("HISTORY_LIMIT", "0")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "LLM_PROVIDER")
	require.Contains(t, err.Error(), "HISTORY_LIMIT")
}

func TestValidate_AllowedOrigins(t *testing.T) {
	base := Config{
		LLMProvider:      ProviderGemini,
		HistoryLimit:     6,
		MaxReplyChars:    800,
		MaxMessageLength: 2000,
		RequestTimeout:   time.Second,
	}
	cases := []struct {
		name    string
		origins []string
		wantErr bool
	}{
		{"wildcard", []string{"*"}, false},
		{"schemes", []string{"https://parkerelectrical.co.uk", "http://localhost:5173"}, false},
		{"missing scheme", []string{"parkerelectrical.co.uk"}, true},
		{"one bad entry", []string{"https://parkerelectrical.co.uk", "ftp://files.example"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			cfg.AllowedOrigins = tc.origins
			err := cfg.Validate()
			if tc.wantErr {
				require.ErrorContains(t, err, "ALLOWED_ORIGINS")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestLoad_RejectsOriginWithoutScheme(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "parkerelectrical.co.uk")
	_, err := Load()
	require.ErrorContains(t, err, "ALLOWED_ORIGINS")
}

func TestCapabilities(t *testing.T) {
	cfg := Config{LLMProvider: ProviderGemini}
	require.Equal(t, Capabilities{}, cfg.Capabilities())

	cfg.GeminiAPIKey = "g"
	cfg.OpenAIAPIKey = ""
	require.Equal(t, Capabilities{Chat: true}, cfg.Capabilities())

	cfg.LLMProvider = ProviderOpenAI
	cfg.BrevoAPIKey = "b"
	require.Equal(t, Capabilities{Chat: false, Email: true}, cfg.Capabilities())
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("LLM_PROVIDER: openai\nHISTORY_LIMIT: 4\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("HISTORY_LIMIT", "8")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	require.Equal(t, 8, cfg.HistoryLimit)
}
