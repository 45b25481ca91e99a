// Package repositorytest provides a SQLite-backed ConsensusRepository for
// tests outside the repository package.
package repositorytest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/complexchaos/internal/adapter/repository"
	"github.com/johnquangdev/complexchaos/internal/domain/entities"
)

// New opens a fresh database in the test's temp dir and migrates the schema
func New(t testing.TB) *repository.ConsensusRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "consensus.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(
		&entities.Session{},
		&entities.Stakeholder{},
		&entities.Submission{},
		&entities.Synthesis{},
		&entities.Critique{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	return repository.NewConsensusRepository(db)
}

// Fixture is a seeded session and its stakeholders
type Fixture struct {
	Session    *entities.Session
	Developed  *entities.Stakeholder
	Developing *entities.Stakeholder
}

// Seed creates a climate session with a developed and a developing nation
// stakeholder. Each text becomes a submission, alternating authors starting
// with the developed nation, one minute apart.
func Seed(t testing.TB, repo *repository.ConsensusRepository, texts ...string) Fixture {
	t.Helper()
	ctx := context.Background()

	session := entities.NewSession("Climate finance", entities.SessionTypeClimate)
	developed := entities.NewStakeholder(session.ID, "Ana", "ana@example.org", entities.RoleDevelopedNation)
	developing := entities.NewStakeholder(session.ID, "Kofi", "kofi@example.org", entities.RoleDevelopingNation)
	session.Stakeholders = []entities.Stakeholder{*developed, *developing}
	if err := repo.CreateSession(ctx, session); err != nil {
		t.Fatalf("create session: %v", err)
	}

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, text := range texts {
		author := developed
		if i%2 == 1 {
			author = developing
		}
		sub := entities.NewSubmission(session.ID, author.ID, text)
		sub.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.CreateSubmission(ctx, sub); err != nil {
			t.Fatalf("create submission: %v", err)
		}
	}

	return Fixture{Session: session, Developed: developed, Developing: developing}
}
