package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
server:
  port: "9090"
database:
  host: db
  user: bot
  dbname: smartguys
telegram:
  token: "123:abc"
  bot_id: 123
admin:
  username: admin
  jwt_secret: secret
dispatcher:
  shards: 4
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

func TestLoad_FileAndDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, testYAML), testLog())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, int64(123), cfg.Telegram.BotID)
	assert.Equal(t, "https://api.telegram.org", cfg.Telegram.APIURL)
	assert.Equal(t, 30, cfg.Game.DefaultAnswerTime)
	assert.Equal(t, 180, cfg.Game.MaxAnswerTime)
	assert.Equal(t, 4, cfg.Dispatcher.Shards)
	assert.Equal(t, 24*time.Hour, cfg.Redis.UpdateDedupeTTL)
	assert.Equal(t, "host=db port=5432 user=bot password= dbname=smartguys sslmode=disable", cfg.Database.PostgresConnectionString())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("DISPATCHER_SHARDS", "16")
	t.Setenv("REDIS_ADDRS", "r1:6379,r2:6379")

	cfg, err := Load(writeConfig(t, testYAML), testLog())
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, 16, cfg.Dispatcher.Shards)
	assert.Equal(t, []string{"r1:6379", "r2:6379"}, cfg.Redis.Addrs)
}

func TestLoad_MissingToken(t *testing.T) {
	_, err := Load(writeConfig(t, "database:\n  host: db\n"), testLog())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram token")
}

func TestValidate_ProductionNeedsPassword(t *testing.T) {
	cfg := Config{
		Server:     ServerConfig{Mode: "release"},
		Database:   DatabaseConfig{Host: "db", User: "bot", DBName: "x"},
		Telegram:   TelegramConfig{Token: "t", BotID: 1},
		Admin:      AdminConfig{JWTSecret: "s"},
		Game:       GameConfig{DefaultAnswerTime: 30, MaxAnswerTime: 180},
		Dispatcher: DispatcherConfig{Shards: 1},
	}
	assert.Error(t, cfg.Validate())

	cfg.Database.Password = "pw"
	assert.NoError(t, cfg.Validate())
}

func TestLoadDatabase_IgnoresBotSettings(t *testing.T) {
	db, err := LoadDatabase(writeConfig(t, "database:\n  host: db\n  user: bot\n  dbname: smartguys\n"), testLog())
	require.NoError(t, err)
	assert.Equal(t, "postgres://bot:@db:5432/smartguys?sslmode=disable", db.PostgresURL())

	_, err = LoadDatabase(writeConfig(t, "telegram:\n  token: x\n"), testLog())
	assert.Error(t, err)
}
