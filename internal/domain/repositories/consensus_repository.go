package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/complexchaos/internal/domain/entities"
)

// ConsensusRepository defines data access for sessions and everything they own
type ConsensusRepository interface {
	// CreateSession inserts a session; ID and timestamps are populated on the record
	CreateSession(ctx context.Context, session *entities.Session) error

	// CreateStakeholder inserts a stakeholder
	CreateStakeholder(ctx context.Context, stakeholder *entities.Stakeholder) error

	// CreateSubmission inserts a submission
	CreateSubmission(ctx context.Context, submission *entities.Submission) error

	// CreateCritique inserts a critique
	CreateCritique(ctx context.Context, critique *entities.Critique) error

	// GetSession retrieves a session without relations
	GetSession(ctx context.Context, id uuid.UUID) (*entities.Session, error)

	// GetStakeholder retrieves a stakeholder by its ID
	GetStakeholder(ctx context.Context, id uuid.UUID) (*entities.Stakeholder, error)

	// GetSessionWithSubmissions retrieves a session with its stakeholders,
	// its submissions (oldest first, each with its author) and only the
	// latest synthesis
	GetSessionWithSubmissions(ctx context.Context, id uuid.UUID) (*entities.Session, error)

	// GetSynthesisWithContext retrieves a synthesis with its session
	// (submissions and stakeholders included) and all critiques
	GetSynthesisWithContext(ctx context.Context, id uuid.UUID) (*entities.Synthesis, error)

	// ListSyntheses retrieves every synthesis of a session, oldest version first
	ListSyntheses(ctx context.Context, sessionID uuid.UUID) ([]*entities.Synthesis, error)

	// LatestSynthesisVersion returns the highest version for a session, 0 if none
	LatestSynthesisVersion(ctx context.Context, sessionID uuid.UUID) (int, error)

	// CreateSynthesis inserts a synthesis. A duplicate (session, version)
	// returns entities.ErrSynthesisVersionConflict
	CreateSynthesis(ctx context.Context, synthesis *entities.Synthesis) error

	// UpdateSessionStatus sets the session status
	UpdateSessionStatus(ctx context.Context, id uuid.UUID, status entities.SessionStatus) error

	// Transaction runs fn against a repository bound to a single transaction.
	// Returning an error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(tx ConsensusRepository) error) error
}
