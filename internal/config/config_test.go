package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })
}

func TestLoadServer_RequiresJWTSecret(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")

	_, err := LoadServer()
	assert.Error(t, err)
}

func TestLoadServer_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CORS_ORIGINS", " http://a.test , ,http://b.test")

	cfg, err := LoadServer()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 720*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, "https://openlibrary.org", cfg.OpenLibrary.BaseURL)
	assert.Equal(t, 1, cfg.OpenLibrary.MaxRetries)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.TrustProxy)
}

func TestLoadServer_RejectsNonPositiveRPS(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("OPENLIBRARY_RPS", "0")

	_, err := LoadServer()
	assert.Error(t, err)
}

func TestLoadClient_EnvFileDoesNotOverrideEnvironment(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, ".env"),
		[]byte("BOOKWORLD_API_URL=http://from-file\nBOOKWORLD_STATE=from-file.db\n"), 0o644))
	chdir(t, tmp)

	t.Setenv("BOOKWORLD_API_URL", "http://from-env/")
	os.Unsetenv("BOOKWORLD_STATE")
	t.Cleanup(func() { os.Unsetenv("BOOKWORLD_STATE") })

	cfg, err := LoadClient()
	require.NoError(t, err)

	assert.Equal(t, "http://from-env", cfg.APIURL)
	assert.Equal(t, "from-file.db", cfg.StatePath)
}
