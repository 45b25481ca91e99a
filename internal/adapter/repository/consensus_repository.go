package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/complexchaos/internal/domain/entities"
	"github.com/johnquangdev/complexchaos/internal/domain/repositories"
)

var _ repositories.ConsensusRepository = (*ConsensusRepository)(nil)

// ConsensusRepository implements the consensus repository interface using GORM
type ConsensusRepository struct {
	db *gorm.DB
}

// NewConsensusRepository creates a new consensus repository
func NewConsensusRepository(db *gorm.DB) *ConsensusRepository {
	return &ConsensusRepository{
		db: db,
	}
}

// Transaction runs fn inside a database transaction
func (r *ConsensusRepository) Transaction(ctx context.Context, fn func(tx repositories.ConsensusRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ConsensusRepository{db: tx})
	})
}

// CreateSession creates a new session together with any stakeholders set on it
func (r *ConsensusRepository) CreateSession(ctx context.Context, session *entities.Session) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// CreateStakeholder creates a new stakeholder
func (r *ConsensusRepository) CreateStakeholder(ctx context.Context, stakeholder *entities.Stakeholder) error {
	if err := r.db.WithContext(ctx).Create(stakeholder).Error; err != nil {
		return fmt.Errorf("failed to create stakeholder: %w", err)
	}
	return nil
}

// CreateSubmission creates a new submission
func (r *ConsensusRepository) CreateSubmission(ctx context.Context, submission *entities.Submission) error {
	if err := r.db.WithContext(ctx).Omit("Stakeholder").Create(submission).Error; err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

// GetSession finds a session by ID
func (r *ConsensusRepository) GetSession(ctx context.Context, id uuid.UUID) (*entities.Session, error) {
	var session entities.Session
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find session by ID: %w", err)
	}
	return &session, nil
}

// GetStakeholder finds a stakeholder by ID
func (r *ConsensusRepository) GetStakeholder(ctx context.Context, id uuid.UUID) (*entities.Stakeholder, error) {
	var stakeholder entities.Stakeholder
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&stakeholder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrStakeholderNotFound
		}
		return nil, fmt.Errorf("failed to find stakeholder by ID: %w", err)
	}
	return &stakeholder, nil
}

// GetSessionWithSubmissions loads a session with submissions, stakeholders and the latest synthesis
func (r *ConsensusRepository) GetSessionWithSubmissions(ctx context.Context, id uuid.UUID) (*entities.Session, error) {
	var session entities.Session
	err := r.db.WithContext(ctx).
		Preload("Stakeholders", oldestFirst).
		Preload("Submissions", oldestFirst).
		Preload("Submissions.Stakeholder").
		Preload("Syntheses", func(db *gorm.DB) *gorm.DB {
			return db.Order("version DESC").Limit(1)
		}).
		Where("id = ?", id).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session with submissions: %w", err)
	}
	return &session, nil
}

// UpdateSessionStatus updates the session status
func (r *ConsensusRepository) UpdateSessionStatus(ctx context.Context, id uuid.UUID, status entities.SessionStatus) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Session{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update session status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return entities.ErrSessionNotFound
	}
	return nil
}

func oldestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

// isUniqueViolation reports whether err is a unique constraint failure.
// TranslateError maps most drivers to gorm.ErrDuplicatedKey; the message
// checks cover connections opened without it.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
