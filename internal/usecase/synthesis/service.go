package synthesis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/complexchaos/internal/domain/entities"
	"github.com/johnquangdev/complexchaos/internal/domain/repositories"
	ucerrors "github.com/johnquangdev/complexchaos/internal/usecase/errors"
	"github.com/johnquangdev/complexchaos/pkg/ai"
	"github.com/johnquangdev/complexchaos/pkg/jobcontext"
)

const (
	jobGenerate = "generate_synthesis"
	jobRefine   = "refine_synthesis"
	jobStream   = "stream_synthesis"

	// DefaultLockTTL bounds a single synthesis run
	DefaultLockTTL = 5 * time.Minute

	temperature = 0.7
	maxTokens   = 2000

	maxPersistRetries = 3
	persistRetryDelay = 20 * time.Millisecond
	releaseTimeout    = 5 * time.Second
)

// Completer is the language model the workflow talks to
type Completer interface {
	Complete(ctx context.Context, req ai.CompletionRequest) (*ai.Completion, error)
	StreamComplete(ctx context.Context, req ai.CompletionRequest) (*ai.Stream, error)
	EstimateCost(inputTokens, outputTokens int, model string) float64
	Model() string
}

// Locker serializes synthesis runs per session
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

// Result is a persisted synthesis plus the accounting of the call that produced it
type Result struct {
	Synthesis     *entities.Synthesis
	Usage         ai.Usage
	EstimatedCost float64
}

// Service defines the synthesis workflow
type Service interface {
	// GenerateSynthesis produces the next version from every submission of the session
	GenerateSynthesis(ctx context.Context, sessionID uuid.UUID) (*Result, error)

	// RefineSynthesis produces the next version from a synthesis and its critiques
	RefineSynthesis(ctx context.Context, synthesisID uuid.UUID) (*Result, error)

	// StreamSynthesis is GenerateSynthesis with incremental output. onChunk
	// receives each fragment; returning an error aborts the run.
	StreamSynthesis(ctx context.Context, sessionID uuid.UUID, onChunk func(string) error) (*Result, error)
}

type service struct {
	repo      repositories.ConsensusRepository
	completer Completer
	locker    Locker
	lockTTL   time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a synthesis service. locker may be nil for a single
// caller; lockTTL <= 0 selects DefaultLockTTL.
func NewService(
	repo repositories.ConsensusRepository,
	completer Completer,
	locker Locker,
	lockTTL time.Duration,
	logger *zap.Logger,
) Service {
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		repo:      repo,
		completer: completer,
		locker:    locker,
		lockTTL:   lockTTL,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *service) GenerateSynthesis(ctx context.Context, sessionID uuid.UUID) (*Result, error) {
	ctx, cancel := jobcontext.JobBegin(ctx, jobGenerate, sessionID, s.lockTTL)
	defer cancel()

	release, err := s.lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	req := s.request(BuildPrompt(generationContext(session)))

	s.logger.Info("🧠 Generating synthesis",
		append(jobcontext.LogFields(ctx),
			zap.Int("submissions", len(session.Submissions)),
			zap.String("model", req.Model))...)

	completion, err := s.completer.Complete(ctx, req)
	if err != nil {
		s.logger.Error("❌ Synthesis generation failed", append(jobcontext.LogFields(ctx), zap.Error(err))...)
		return nil, err
	}

	meta := entities.NewGenerationMetadata(entities.GenerationMetadata{
		SubmissionCount:  len(session.Submissions),
		StakeholderRoles: distinctRoles(session.Submissions),
		GeneratedAt:      s.now().UTC(),
	})

	synthesis, err := s.persist(ctx, sessionID, entities.SessionStatusActive, func(version int) *entities.Synthesis {
		return entities.NewSynthesis(sessionID, version, completion.Content, modelOf(completion.Model, req.Model), completion.Usage.TotalTokens, meta)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("✅ Synthesis generated",
		append(jobcontext.LogFields(ctx),
			zap.String("synthesis_id", synthesis.ID.String()),
			zap.Int("version", synthesis.Version),
			zap.Int("tokens", synthesis.TokenCount),
			zap.Duration("elapsed", jobcontext.Elapsed(ctx)))...)

	return &Result{
		Synthesis:     synthesis,
		Usage:         completion.Usage,
		EstimatedCost: s.completer.EstimateCost(completion.Usage.PromptTokens, completion.Usage.CompletionTokens, synthesis.ModelUsed),
	}, nil
}

func (s *service) RefineSynthesis(ctx context.Context, synthesisID uuid.UUID) (*Result, error) {
	previous, err := s.repo.GetSynthesisWithContext(ctx, synthesisID)
	if err != nil {
		if errors.Is(err, entities.ErrSynthesisNotFound) {
			return nil, ucerrors.NotFound("synthesis", synthesisID.String(), err)
		}
		return nil, fmt.Errorf("failed to load synthesis: %w", err)
	}
	if len(previous.Critiques) == 0 {
		return nil, ucerrors.Validation(ucerrors.ErrNoCritiques, synthesisID.String())
	}
	if previous.Session == nil {
		return nil, fmt.Errorf("synthesis %s loaded without its session", synthesisID)
	}

	sessionID := previous.SessionID
	ctx, cancel := jobcontext.JobBegin(ctx, jobRefine, sessionID, s.lockTTL)
	defer cancel()

	release, err := s.lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	critiques := make([]string, 0, len(previous.Critiques))
	for _, c := range previous.Critiques {
		critiques = append(critiques, c.Content)
	}

	prompt := BuildPrompt(PromptContext{
		Title:             previous.Session.Title,
		Type:              previous.Session.Type,
		Perspectives:      perspectivesOf(previous.Session.Submissions),
		PreviousSynthesis: previous.Content,
		Critiques:         critiques,
	})
	req := s.request(prompt + RefinementInstruction)

	s.logger.Info("🔁 Refining synthesis",
		append(jobcontext.LogFields(ctx),
			zap.String("refined_from", synthesisID.String()),
			zap.Int("critiques", len(critiques)))...)

	completion, err := s.completer.Complete(ctx, req)
	if err != nil {
		s.logger.Error("❌ Synthesis refinement failed", append(jobcontext.LogFields(ctx), zap.Error(err))...)
		return nil, err
	}

	meta := entities.NewRefinementMetadata(entities.RefinementMetadata{
		RefinedFrom:   synthesisID,
		CritiqueCount: len(critiques),
		GeneratedAt:   s.now().UTC(),
	})

	synthesis, err := s.persist(ctx, sessionID, "", func(version int) *entities.Synthesis {
		return entities.NewSynthesis(sessionID, version, completion.Content, modelOf(completion.Model, req.Model), completion.Usage.TotalTokens, meta)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("✅ Synthesis refined",
		append(jobcontext.LogFields(ctx),
			zap.String("synthesis_id", synthesis.ID.String()),
			zap.Int("version", synthesis.Version))...)

	return &Result{
		Synthesis:     synthesis,
		Usage:         completion.Usage,
		EstimatedCost: s.completer.EstimateCost(completion.Usage.PromptTokens, completion.Usage.CompletionTokens, synthesis.ModelUsed),
	}, nil
}

func (s *service) StreamSynthesis(ctx context.Context, sessionID uuid.UUID, onChunk func(string) error) (*Result, error) {
	ctx, cancel := jobcontext.JobBegin(ctx, jobStream, sessionID, s.lockTTL)
	defer cancel()

	release, err := s.lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(generationContext(session))
	req := s.request(prompt)

	s.logger.Info("📡 Streaming synthesis", append(jobcontext.LogFields(ctx), zap.Int("submissions", len(session.Submissions)))...)

	stream, err := s.completer.StreamComplete(ctx, req)
	if err != nil {
		s.logger.Error("❌ Failed to open synthesis stream", append(jobcontext.LogFields(ctx), zap.Error(err))...)
		return nil, err
	}
	defer stream.Close()

	var content strings.Builder
	for stream.Next() {
		chunk := stream.Chunk()
		content.WriteString(chunk)
		if onChunk == nil {
			continue
		}
		if err := onChunk(chunk); err != nil {
			s.logger.Warn("⚠️ Stream consumer aborted", append(jobcontext.LogFields(ctx), zap.Error(err))...)
			return nil, fmt.Errorf("stream consumer aborted: %w", err)
		}
	}
	if err := stream.Err(); err != nil {
		s.logger.Error("❌ Synthesis stream failed", append(jobcontext.LogFields(ctx), zap.Error(err))...)
		return nil, err
	}

	text := content.String()
	usage := ai.Usage{
		PromptTokens:     ai.EstimateTokens(SystemPrompt) + ai.EstimateTokens(prompt),
		CompletionTokens: ai.EstimateTokens(text),
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	meta := entities.NewGenerationMetadata(entities.GenerationMetadata{
		SubmissionCount:  len(session.Submissions),
		StakeholderRoles: distinctRoles(session.Submissions),
		GeneratedAt:      s.now().UTC(),
		Streamed:         true,
	})

	synthesis, err := s.persist(ctx, sessionID, entities.SessionStatusActive, func(version int) *entities.Synthesis {
		return entities.NewSynthesis(sessionID, version, text, req.Model, usage.TotalTokens, meta)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("✅ Streamed synthesis stored",
		append(jobcontext.LogFields(ctx),
			zap.String("synthesis_id", synthesis.ID.String()),
			zap.Int("version", synthesis.Version))...)

	return &Result{
		Synthesis:     synthesis,
		Usage:         usage,
		EstimatedCost: s.completer.EstimateCost(usage.PromptTokens, usage.CompletionTokens, req.Model),
	}, nil
}

// loadSession fetches the session for generation and enforces that it has input
func (s *service) loadSession(ctx context.Context, sessionID uuid.UUID) (*entities.Session, error) {
	session, err := s.repo.GetSessionWithSubmissions(ctx, sessionID)
	if err != nil {
		if errors.Is(err, entities.ErrSessionNotFound) {
			return nil, ucerrors.NotFound("session", sessionID.String(), err)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if len(session.Submissions) == 0 {
		return nil, ucerrors.Validation(ucerrors.ErrNoSubmissions, sessionID.String())
	}
	return session, nil
}

func (s *service) request(prompt string) ai.CompletionRequest {
	return ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: SystemPrompt},
			{Role: ai.RoleUser, Content: prompt},
		},
		Model:       s.completer.Model(),
		Temperature: ai.Temperature(temperature),
		MaxTokens:   maxTokens,
	}
}

// lock takes the per-session synthesis lock and returns its release func
func (s *service) lock(ctx context.Context, sessionID uuid.UUID) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}

	key := lockKey(sessionID)
	token, ok, err := s.locker.Acquire(ctx, key, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire synthesis lock: %w", err)
	}
	if !ok {
		s.logger.Warn("⏳ Synthesis already running", zap.String("session_id", sessionID.String()))
		return nil, ucerrors.ErrSynthesisInProgress
	}

	return func() {
		// The run context may already be cancelled here.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := s.locker.Release(releaseCtx, key, token); err != nil {
			s.logger.Warn("⚠️ Failed to release synthesis lock",
				zap.String("session_id", sessionID.String()),
				zap.Error(err))
		}
	}, nil
}

// persist writes the next version and, when status is set, moves the session
// to it in the same transaction. A version conflict recomputes the version
// and retries the transaction.
func (s *service) persist(
	ctx context.Context,
	sessionID uuid.UUID,
	status entities.SessionStatus,
	build func(version int) *entities.Synthesis,
) (*entities.Synthesis, error) {
	var created *entities.Synthesis

	operation := func() error {
		err := s.repo.Transaction(ctx, func(tx repositories.ConsensusRepository) error {
			latest, err := tx.LatestSynthesisVersion(ctx, sessionID)
			if err != nil {
				return err
			}

			synthesis := build(latest + 1)
			if err := tx.CreateSynthesis(ctx, synthesis); err != nil {
				return err
			}

			if status != "" {
				if err := tx.UpdateSessionStatus(ctx, sessionID, status); err != nil {
					return err
				}
			}

			created = synthesis
			return nil
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, entities.ErrSynthesisVersionConflict) {
			s.logger.Warn("🔁 Synthesis version conflict, retrying", zap.String("session_id", sessionID.String()))
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(persistRetryDelay), maxPersistRetries),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		if errors.Is(err, entities.ErrSessionNotFound) {
			return nil, ucerrors.NotFound("session", sessionID.String(), err)
		}
		return nil, fmt.Errorf("failed to store synthesis: %w", err)
	}

	return created, nil
}

func lockKey(sessionID uuid.UUID) string {
	return "synthesis:lock:" + sessionID.String()
}

func generationContext(session *entities.Session) PromptContext {
	p := PromptContext{
		Title:        session.Title,
		Type:         session.Type,
		Perspectives: perspectivesOf(session.Submissions),
	}
	if latest := session.LatestSynthesis(); latest != nil {
		p.PreviousSynthesis = latest.Content
	}
	return p
}

// modelOf prefers the model the provider reports over the one requested
func modelOf(reported, requested string) string {
	if reported != "" {
		return reported
	}
	return requested
}
