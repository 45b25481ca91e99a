package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	migrate "github.com/rubenv/sql-migrate"

	"github.com/johnquangdev/complexchaos/internal/infrastructure/database"
	"github.com/johnquangdev/complexchaos/pkg/config"
)

// plan is what a single invocation applies
type plan struct {
	direction migrate.MigrationDirection
	max       int
}

// parsePlan reads the command line. Up applies everything pending unless
// -steps is set; -down rolls back one migration unless -steps says otherwise.
func parsePlan(args []string) (plan, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	down := fs.Bool("down", false, "roll back applied migrations instead of applying pending ones")
	steps := fs.Int("steps", -1, "number of migrations to run; 0 means all (default: all up, 1 down)")
	if err := fs.Parse(args); err != nil {
		return plan{}, err
	}

	p := plan{direction: migrate.Up, max: 0}
	if *down {
		p.direction = migrate.Down
		p.max = 1
	}
	switch {
	case *steps >= 0:
		p.max = *steps
	case *steps != -1:
		return plan{}, fmt.Errorf("-steps must not be negative, got %d", *steps)
	}
	return p, nil
}

func main() {
	p, err := parsePlan(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	if _, err := database.MigrateMax(db, p.direction, p.max); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
}
