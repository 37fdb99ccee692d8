package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"

	"bookcatalog-backend/internal/config"
	"bookcatalog-backend/migrations"
	"bookcatalog-backend/pkg/logger"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, version, create")
		name    = flag.String("name", "", "Name for 'create' command")
		dir     = flag.String("dir", "migrations", "Target directory for 'create'")
	)
	flag.Parse()

	_ = godotenv.Load()
	logger.Init(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))

	if *command == "create" {
		if *name == "" {
			log.Fatal().Msg("Name is required for 'create' command")
		}
		if err := goose.Create(nil, *dir, *name, "sql"); err != nil {
			log.Fatal().Err(err).Msg("Failed to create migration")
		}
		fmt.Printf("Migration created: %s\n", *name)
		return
	}

	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load database config")
	}

	db, err := sql.Open("postgres", dbConfig.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := run(db, *command); err != nil {
		log.Fatal().Err(err).Str("command", *command).Msg("Migration failed")
	}
}

func run(db *sql.DB, command string) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch command {
	case "up":
		if err := goose.Up(db, "."); err != nil {
			return err
		}
		log.Info().Msg("Migrations applied successfully")
	case "down":
		if err := goose.Down(db, "."); err != nil {
			return err
		}
		log.Info().Msg("Migrations rolled back successfully")
	case "status":
		return goose.Status(db, ".")
	case "version":
		return goose.Version(db, ".")
	default:
		return fmt.Errorf("unknown command %q, use: up, down, status, version, create", command)
	}
	return nil
}
