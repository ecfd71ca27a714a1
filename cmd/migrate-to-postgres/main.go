// migrate-to-postgres copies stored fact runs from a SQLite fact store to
// PostgreSQL. Runs already present in PostgreSQL under the same digest are
// skipped unless -replace is given.
//
// Usage:
//
//	go run ./cmd/migrate-to-postgres \
//	    -sqlite data/worldfacts.db \
//	    -pg-host localhost \
//	    -pg-port 5432 \
//	    -pg-user worldfacts \
//	    -pg-password worldfacts \
//	    -pg-database worldfacts
package main

import (
	"errors"
	"flag"
	"log"

	"github.com/lawnchairsociety/worldfacts/internal/database"
)

func main() {
	defaults := database.DefaultPostgresConfig()

	sqlitePath := flag.String("sqlite", "data/worldfacts.db", "Path to SQLite fact store")
	pgHost := flag.String("pg-host", defaults.Host, "PostgreSQL host")
	pgPort := flag.Int("pg-port", defaults.Port, "PostgreSQL port")
	pgUser := flag.String("pg-user", defaults.User, "PostgreSQL user")
	pgPassword := flag.String("pg-password", "", "PostgreSQL password")
	pgDatabase := flag.String("pg-database", defaults.Database, "PostgreSQL database name")
	pgSSLMode := flag.String("pg-sslmode", defaults.SSLMode, "PostgreSQL SSL mode")
	dryRun := flag.Bool("dry-run", false, "Show what would be migrated without making changes")
	replace := flag.Bool("replace", false, "Overwrite runs already stored in PostgreSQL")
	flag.Parse()

	log.Println("SQLite to PostgreSQL Fact Store Migration")
	log.Println("=========================================")

	log.Printf("Opening SQLite fact store: %s", *sqlitePath)
	src, err := database.OpenSQLite(*sqlitePath)
	if err != nil {
		log.Fatalf("Failed to open SQLite fact store: %v", err)
	}
	defer src.Close()

	runs, err := src.ListRuns()
	if err != nil {
		log.Fatalf("Failed to list runs: %v", err)
	}
	log.Printf("Found %d runs", len(runs))

	if *dryRun {
		log.Println("DRY RUN MODE - No changes will be made")
		for _, r := range runs {
			log.Printf("  would copy %s (%s, %d facts)", r.Digest, r.MapName, r.FactCount)
		}
		return
	}

	pg := defaults
	pg.Host = *pgHost
	pg.Port = *pgPort
	pg.User = *pgUser
	pg.Password = *pgPassword
	pg.Database = *pgDatabase
	pg.SSLMode = *pgSSLMode

	log.Printf("Opening PostgreSQL fact store: %s@%s:%d/%s", pg.User, pg.Host, pg.Port, pg.Database)
	dst, err := database.Open(database.Config{Driver: string(database.DialectPostgres), Postgres: pg})
	if err != nil {
		log.Fatalf("Failed to open PostgreSQL fact store: %v", err)
	}
	defer dst.Close()

	store := dst.InsertRun
	if *replace {
		store = dst.SaveRun
	}

	var copied, skipped, totalFacts int
	// ListRuns is newest first; copy oldest first so ids keep their order.
	for i := len(runs) - 1; i >= 0; i-- {
		run, fs, err := src.LoadRun(runs[i].Digest)
		if err != nil {
			log.Fatalf("Failed to load run %s: %v", runs[i].Digest, err)
		}
		if _, err := store(*run, fs); errors.Is(err, database.ErrRunExists) {
			log.Printf("  Skipped %s (already stored)", run.Digest)
			skipped++
			continue
		} else if err != nil {
			log.Fatalf("Failed to save run %s: %v", run.Digest, err)
		}
		log.Printf("  Migrated %s (%d facts)", run.Digest, len(fs))
		copied++
		totalFacts += len(fs)
	}

	log.Println("=========================================")
	log.Printf("Migration complete! %d runs, %d facts (%d skipped)", copied, totalFacts, skipped)
}
