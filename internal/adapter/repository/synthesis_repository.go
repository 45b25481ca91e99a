package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/complexchaos/internal/domain/entities"
)

// CreateSynthesis stores a new synthesis version
func (r *ConsensusRepository) CreateSynthesis(ctx context.Context, synthesis *entities.Synthesis) error {
	if err := r.db.WithContext(ctx).Omit("Session", "Critiques").Create(synthesis).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("session %s version %d: %w", synthesis.SessionID, synthesis.Version, entities.ErrSynthesisVersionConflict)
		}
		return fmt.Errorf("failed to create synthesis: %w", err)
	}
	return nil
}

// CreateCritique creates a new critique
func (r *ConsensusRepository) CreateCritique(ctx context.Context, critique *entities.Critique) error {
	if err := r.db.WithContext(ctx).Omit("Stakeholder").Create(critique).Error; err != nil {
		return fmt.Errorf("failed to create critique: %w", err)
	}
	return nil
}

// GetSynthesisWithContext loads a synthesis with its session, submissions and critiques
func (r *ConsensusRepository) GetSynthesisWithContext(ctx context.Context, id uuid.UUID) (*entities.Synthesis, error) {
	var synthesis entities.Synthesis
	err := r.db.WithContext(ctx).
		Preload("Session").
		Preload("Session.Stakeholders", oldestFirst).
		Preload("Session.Submissions", oldestFirst).
		Preload("Session.Submissions.Stakeholder").
		Preload("Critiques", oldestFirst).
		Preload("Critiques.Stakeholder").
		Where("id = ?", id).
		First(&synthesis).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrSynthesisNotFound
		}
		return nil, fmt.Errorf("failed to load synthesis with context: %w", err)
	}
	if synthesis.Session == nil {
		return nil, fmt.Errorf("synthesis %s has no session: %w", id, entities.ErrSessionNotFound)
	}
	return &synthesis, nil
}

// ListSyntheses returns every version for a session
func (r *ConsensusRepository) ListSyntheses(ctx context.Context, sessionID uuid.UUID) ([]*entities.Synthesis, error) {
	var syntheses []*entities.Synthesis
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("version ASC").
		Find(&syntheses).Error; err != nil {
		return nil, fmt.Errorf("failed to list syntheses: %w", err)
	}
	return syntheses, nil
}

// LatestSynthesisVersion returns the highest stored version, 0 when none exist
func (r *ConsensusRepository) LatestSynthesisVersion(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var version int
	if err := r.db.WithContext(ctx).
		Model(&entities.Synthesis{}).
		Where("session_id = ?", sessionID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&version).Error; err != nil {
		return 0, fmt.Errorf("failed to read latest synthesis version: %w", err)
	}
	return version, nil
}
