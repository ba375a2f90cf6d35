// Command migrate creates the schema and runs the chat_history sender_id
// backfill. A completed backfill is skipped unless -force is given.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/order-notifier/internal/config"
	"github.com/tbourn/order-notifier/internal/repo"
	"github.com/tbourn/order-notifier/internal/sysutil"
)

func main() {
	force := flag.Bool("force", false, "re-run migrations already marked complete")
	dbPath := flag.String("db", "", "SQLite path (defaults to DB_PATH)")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	sysutil.SetupLogger(os.Stderr, "order-notifier-migrate", cfg.LogLevel, cfg.LogPretty)
	path := sysutil.FirstNonEmpty(*dbPath, cfg.DBPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repo.OpenSQLite(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("schema")
	}

	res, err := repo.MigrateChatHistorySenderID(ctx, db, *force)
	if err != nil {
		log.Fatal().Err(err).Msg(repo.ChatHistorySenderIDMigration)
	}
	log.Info().
		Str("migration", repo.ChatHistorySenderIDMigration).
		Bool("skipped", res.Skipped).
		Int64("matched", res.Matched).
		Int64("modified", res.Modified).
		Strs("index_failures", res.IndexFailures).
		Msg("done")
}
