package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/glushul/SmartGuysSmartGirls/internal/config"
	"github.com/glushul/SmartGuysSmartGirls/internal/pkg/logger"
)

const usage = `Использование: migrate [-config path] [-source url] <command> [arg]

Команды:
  up            применить все миграции
  down N        откатить N миграций
  force V       пометить версию V чистой (после упавшей миграции)
  version       показать текущую версию
`

func main() {
	log := logger.New("smartguys-migrate", "")

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "путь к config.yaml")
	source := flag.String("source", "", "источник миграций (по умолчанию из конфигурации)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	dbConfig, err := config.LoadDatabase(*configPath, log)
	if err != nil {
		log.WithError(err).Fatal("[Migrate] Failed to load config")
	}
	sourceURL := *source
	if sourceURL == "" {
		sourceURL = dbConfig.MigrationsURL
	}

	db, err := sql.Open("postgres", dbConfig.PostgresConnectionString())
	if err != nil {
		log.WithError(err).Fatal("[Migrate] Failed to open database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.WithError(err).Fatal("[Migrate] Database is unreachable")
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.WithError(err).Fatal("[Migrate] Failed to create postgres driver")
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		log.WithError(err).Fatal("[Migrate] Failed to create migrate instance")
	}

	if err := run(m, flag.Args(), log); err != nil {
		log.WithError(err).Fatal("[Migrate] Command failed")
	}
}

func run(m *migrate.Migrate, args []string, log *logrus.Entry) error {
	command := args[0]
	switch command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	case "down":
		steps, err := intArg(args)
		if err != nil {
			return err
		}
		if steps <= 0 {
			return fmt.Errorf("down: N must be positive")
		}
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	case "force":
		version, err := intArg(args)
		if err != nil {
			return err
		}
		log.Warnf("[Migrate] Принудительная установка версии %d", version)
		if err := m.Force(version); err != nil {
			return err
		}
	case "version":
	default:
		return fmt.Errorf("unknown command %q", command)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.Info("[Migrate] Миграции еще не применялись")
	case err != nil:
		return err
	default:
		log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("[Migrate] Текущая версия схемы")
	}
	return nil
}

func intArg(args []string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s: missing argument", args[0])
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", args[0], args[1])
	}
	return n, nil
}
