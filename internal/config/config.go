package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Game       GameConfig       `mapstructure:"game"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher"`
	Admin      AdminConfig      `mapstructure:"admin"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig содержит настройки HTTP сервера админки
type ServerConfig struct {
	Port         string   `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout"`
	WriteTimeout int      `mapstructure:"write_timeout"`
	CORSOrigins  []string `mapstructure:"cors_origins"`
	Mode         string   `mapstructure:"mode"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          string `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	DBName        string `mapstructure:"dbname"`
	SSLMode       string `mapstructure:"sslmode"`
	MigrationsURL string `mapstructure:"migrations_url"`
	MaxOpenConns  int    `mapstructure:"max_open_conns"`
	MaxIdleConns  int    `mapstructure:"max_idle_conns"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: "single", "sentinel" или "cluster". По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: список адресов хост:порт; для 'single' используется первый
	Addrs []string `mapstructure:"addrs"`

	// Addr: адрес для режима 'single', если Addrs пуст
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: имя мастер-сервера (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // мс
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // мс

	KeyPrefix       string        `mapstructure:"key_prefix"`
	UpdateDedupeTTL time.Duration `mapstructure:"update_dedupe_ttl"`
	CatalogTTL      time.Duration `mapstructure:"catalog_ttl"`
}

// TelegramConfig содержит настройки Bot API
type TelegramConfig struct {
	Token       string `mapstructure:"token"`
	BotID       int64  `mapstructure:"bot_id"`
	BotName     string `mapstructure:"bot_name"`
	APIURL      string `mapstructure:"api_url"`
	PollTimeout int    `mapstructure:"poll_timeout"` // секунды long polling
	PollLimit   int    `mapstructure:"poll_limit"`
}

// GameConfig содержит игровые параметры
type GameConfig struct {
	DefaultAnswerTime int `mapstructure:"default_answer_time"`
	MaxAnswerTime     int `mapstructure:"max_answer_time"`
}

// DispatcherConfig содержит настройки шардированного диспетчера событий
type DispatcherConfig struct {
	Shards    int `mapstructure:"shards"`
	QueueSize int `mapstructure:"queue_size"`
}

// AdminConfig содержит учетные данные администратора и настройки токенов
type AdminConfig struct {
	Username      string `mapstructure:"username"`
	PasswordHash  string `mapstructure:"password_hash"`
	JWTSecret     string `mapstructure:"jwt_secret"`
	TokenTTLHours int    `mapstructure:"token_ttl_hours"`
}

// LogConfig содержит настройки логирования
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// PostgresURL формирует URL подключения для golang-migrate
func (d *DatabaseConfig) PostgresURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// IsDebug сообщает, запущен ли сервер в режиме разработки
func (c *Config) IsDebug() bool {
	return c.Server.Mode == "" || c.Server.Mode == "debug"
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.read_timeout", 10)
	vip.SetDefault("server.write_timeout", 10)
	vip.SetDefault("server.mode", "debug")

	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.migrations_url", "file://migrations")

	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("redis.key_prefix", "smartguys:")
	vip.SetDefault("redis.update_dedupe_ttl", 24*time.Hour)
	vip.SetDefault("redis.catalog_ttl", 10*time.Minute)

	vip.SetDefault("telegram.api_url", "https://api.telegram.org")
	vip.SetDefault("telegram.poll_timeout", 30)
	vip.SetDefault("telegram.poll_limit", 100)

	vip.SetDefault("game.default_answer_time", 30)
	vip.SetDefault("game.max_answer_time", 180)

	vip.SetDefault("dispatcher.shards", 8)
	vip.SetDefault("dispatcher.queue_size", 256)

	vip.SetDefault("admin.token_ttl_hours", 24)
	vip.SetDefault("log.level", "info")
}

func bindEnv(vip *viper.Viper) {
	bindings := map[string]string{
		"server.port":           "SERVER_PORT",
		"server.mode":           "GIN_MODE",
		"server.cors_origins":   "SERVER_CORS_ORIGINS",
		"database.host":         "DATABASE_HOST",
		"database.port":         "DATABASE_PORT",
		"database.user":         "DATABASE_USER",
		"database.password":     "DATABASE_PASSWORD",
		"database.dbname":       "DATABASE_DBNAME",
		"database.sslmode":      "DATABASE_SSLMODE",
		"redis.mode":            "REDIS_MODE",
		"redis.addrs":           "REDIS_ADDRS",
		"redis.addr":            "REDIS_ADDR",
		"redis.password":        "REDIS_PASSWORD",
		"redis.db":              "REDIS_DB",
		"redis.master_name":     "REDIS_MASTER_NAME",
		"telegram.token":        "TELEGRAM_TOKEN",
		"telegram.bot_id":       "TELEGRAM_BOT_ID",
		"telegram.bot_name":     "TELEGRAM_BOT_NAME",
		"telegram.api_url":      "TELEGRAM_API_URL",
		"dispatcher.shards":     "DISPATCHER_SHARDS",
		"admin.username":        "ADMIN_USERNAME",
		"admin.password_hash":   "ADMIN_PASSWORD_HASH",
		"admin.jwt_secret":      "ADMIN_JWT_SECRET",
		"admin.token_ttl_hours": "ADMIN_TOKEN_TTL_HOURS",
		"log.level":             "LOG_LEVEL",
	}
	for key, env := range bindings {
		_ = vip.BindEnv(key, env)
	}
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string, log *logrus.Entry) (*Config, error) {
	cfg, err := read(configPath, log)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.IsDebug() {
		log.WithFields(logrus.Fields{
			"database_host": cfg.Database.Host,
			"database_name": cfg.Database.DBName,
			"redis_mode":    cfg.Redis.Mode,
			"server_port":   cfg.Server.Port,
			"shards":        cfg.Dispatcher.Shards,
			"admin_set":     cfg.Admin.PasswordHash != "",
		}).Debug("[Config] Загруженные значения конфигурации")
	}

	return cfg, nil
}

// LoadDatabase загружает только секцию базы данных; нужна утилитам, которым не нужен бот
func LoadDatabase(configPath string, log *logrus.Entry) (*DatabaseConfig, error) {
	cfg, err := read(configPath, log)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateDatabase(); err != nil {
		return nil, err
	}
	return &cfg.Database, nil
}

func read(configPath string, log *logrus.Entry) (*Config, error) {
	vip := viper.New() // Новый экземпляр, чтобы избежать глобального состояния

	setDefaults(vip)
	bindEnv(vip)

	if configPath != "" {
		vip.SetConfigFile(configPath)
		// Файла может не быть: значения придут из окружения
		if err := vip.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
				log.Warnf("[Config] Файл конфигурации '%s' не найден, используются переменные окружения и умолчания", configPath)
			} else {
				log.WithError(err).Warnf("[Config] Не удалось прочитать файл конфигурации '%s'", configPath)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// REDIS_ADDRS приходит одной строкой через запятую
	if len(cfg.Redis.Addrs) == 1 && strings.Contains(cfg.Redis.Addrs[0], ",") {
		cfg.Redis.Addrs = strings.Split(cfg.Redis.Addrs[0], ",")
	}
	return &cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required (check TELEGRAM_TOKEN env var)")
	}
	if c.Telegram.BotID == 0 {
		return fmt.Errorf("telegram bot id is required (check TELEGRAM_BOT_ID env var)")
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if c.Admin.JWTSecret == "" {
		return fmt.Errorf("admin jwt secret is required (check ADMIN_JWT_SECRET env var)")
	}
	if c.Game.DefaultAnswerTime < 1 || c.Game.DefaultAnswerTime > c.Game.MaxAnswerTime {
		return fmt.Errorf("game.default_answer_time must be within 1..%d", c.Game.MaxAnswerTime)
	}
	if c.Dispatcher.Shards < 1 {
		return fmt.Errorf("dispatcher.shards must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if !c.IsDebug() && c.Database.Password == "" {
		return fmt.Errorf("database password is required in production mode (check DATABASE_PASSWORD env var)")
	}
	return nil
}
