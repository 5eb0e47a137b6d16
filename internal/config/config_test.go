package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	tcases := []struct {
		name    string
		port    string
		dbUrl   string
		dbUser  string
		dbPw    string
		imgHost string
		err     bool
	}{
		{
			name:    "valid config",
			port:    "12345",
			dbUrl:   "host=localhost dbname=chat sslmode=disable",
			dbUser:  "chat",
			dbPw:    "secret",
			imgHost: "https://img.example.com/",
			err:     false,
		},
		{
			name:  "empty port",
			port:  "",
			dbUrl: "host=localhost dbname=chat",
			err:   true,
		},
		{
			name:  "non-numeric port",
			port:  "tcp",
			dbUrl: "host=localhost dbname=chat",
			err:   true,
		},
		{
			name:  "empty db url",
			port:  "12345",
			dbUrl: "",
			err:   true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.port, tc.dbUrl, tc.dbUser, tc.dbPw, tc.imgHost, "")
			if tc.err {
				assert.Error(t, err, "expected error for config: %s", tc.name)
				return
			}
			assert.NoError(t, err, "expected no error for config: %s", tc.name)

			assert.Equal(t, 12345, cfg.ServerPort, "expected server port to match")
			assert.Equal(t, tc.dbUrl, cfg.DBUrl, "expected db url to match")
			assert.Equal(t, tc.imgHost, cfg.ImageHost, "expected image host to match")
			assert.Equal(t, ":12345", cfg.ListenAddr(), "expected listen address to match")
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.properties")
	contents := "SERVER_PORT=12345\n" +
		"DB_URL=host=localhost dbname=chat sslmode=disable\n" +
		"DB_USER=chat\n" +
		"DB_PW=secret\n" +
		"IMG_HOST=https://img.example.com/\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	cfg, err := Load(path)
	assert.NoError(t, err, "expected no error loading properties file")
	assert.Equal(t, 12345, cfg.ServerPort, "expected server port to match")
	assert.Equal(t, "chat", cfg.DBUser, "expected db user to match")
	assert.Equal(t, "https://img.example.com/", cfg.ImageHost, "expected image host to match")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.properties"))
	assert.Error(t, err, "expected error for missing properties file")
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		DBUrl:      "host=localhost dbname=chat sslmode=disable",
		DBUser:     "chat",
		DBPassword: "secret",
	}

	assert.Equal(t,
		"host=localhost dbname=chat sslmode=disable user=chat password=secret",
		cfg.DSN(), "expected credentials appended to DSN")

	cfg.DBUser = ""
	cfg.DBPassword = ""
	assert.Equal(t, cfg.DBUrl, cfg.DSN(), "expected bare DSN without credentials")
}
