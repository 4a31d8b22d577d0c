package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/glushul/SmartGuysSmartGirls/internal/config"
	"github.com/glushul/SmartGuysSmartGirls/internal/importer"
	"github.com/glushul/SmartGuysSmartGirls/internal/pkg/logger"
	pgRepo "github.com/glushul/SmartGuysSmartGirls/internal/repository/postgres"
	"github.com/glushul/SmartGuysSmartGirls/internal/service"
	"github.com/glushul/SmartGuysSmartGirls/pkg/database"
)

func main() {
	log := logger.New("smartguys-import", "")

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "путь к config.yaml")
	file := flag.String("file", "", "книга Excel с колонками theme, question, answer, is_correct")
	sheet := flag.String("sheet", "", "имя листа (по умолчанию первый)")
	dryRun := flag.Bool("dry-run", false, "только проверить файл")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(*file)
	if err != nil {
		log.WithError(err).Fatal("[Import] Failed to open file")
	}
	rows, err := importer.ParseWorkbook(f, *sheet)
	f.Close()
	if err != nil {
		log.WithError(err).Fatal("[Import] Failed to parse workbook")
	}
	log.WithField("questions", len(rows)).Info("[Import] Файл прочитан")
	if *dryRun {
		return
	}

	dbConfig, err := config.LoadDatabase(*configPath, log)
	if err != nil {
		log.WithError(err).Fatal("[Import] Failed to load config")
	}
	db, err := database.NewPostgresDB(dbConfig.PostgresConnectionString(), database.PoolConfig{MaxOpenConns: 2})
	if err != nil {
		log.WithError(err).Fatal("[Import] Failed to connect to database")
	}

	catalog := service.NewQuestionService(pgRepo.NewQuestionRepo(db), log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := importer.Import(ctx, catalog, rows, log)
	if err != nil {
		log.WithError(err).Fatal("[Import] Import failed")
	}
	log.WithFields(logrus.Fields{
		"themes_created":    result.ThemesCreated,
		"questions_created": len(result.QuestionIDs),
	}).Info("[Import] Импорт завершен")
}
