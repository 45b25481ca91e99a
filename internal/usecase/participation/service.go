package participation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/complexchaos/internal/domain/entities"
	"github.com/johnquangdev/complexchaos/internal/domain/repositories"
	ucerrors "github.com/johnquangdev/complexchaos/internal/usecase/errors"
	"github.com/johnquangdev/complexchaos/internal/usecase/synthesis"
	"github.com/johnquangdev/complexchaos/pkg/ai"
)

const (
	// MaxDocumentBytes caps text documents that become submission content
	MaxDocumentBytes = 1 << 20

	presignExpiry = time.Hour
)

// ObjectStore keeps uploaded attachments
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	GetFileURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	ObjectURL(objectName string) string
}

// Transcriber converts audio reachable at a URL to text
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL string) (string, error)
}

// StakeholderInput describes a stakeholder to register
type StakeholderInput struct {
	Name  string
	Email string
	Role  entities.StakeholderRole
}

// CreateSessionInput describes a new session and its initial stakeholders
type CreateSessionInput struct {
	Title         string
	Description   *string
	Type          entities.SessionType
	FacilitatorID *string
	Stakeholders  []StakeholderInput
}

// PerspectiveInput is a text submission
type PerspectiveInput struct {
	StakeholderID uuid.UUID
	Content       string
}

// AttachmentInput is an uploaded document or recording
type AttachmentInput struct {
	StakeholderID uuid.UUID
	Type          entities.SubmissionType
	Filename      string
	ContentType   string
	Size          int64
	Reader        io.Reader
}

// CritiqueInput is feedback on a synthesis
type CritiqueInput struct {
	StakeholderID uuid.UUID
	Content       string
}

// Diversity summarizes how varied a session's submissions are
type Diversity struct {
	Index           float64
	SubmissionCount int
	TokenEstimate   int
}

// Service defines the participation operations around a session
type Service interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*entities.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*entities.Session, error)
	AddStakeholder(ctx context.Context, sessionID uuid.UUID, input StakeholderInput) (*entities.Stakeholder, error)
	SubmitPerspective(ctx context.Context, sessionID uuid.UUID, input PerspectiveInput) (*entities.Submission, error)
	SubmitAttachment(ctx context.Context, sessionID uuid.UUID, input AttachmentInput) (*entities.Submission, error)
	AddCritique(ctx context.Context, synthesisID uuid.UUID, input CritiqueInput) (*entities.Critique, error)
	UpdateStatus(ctx context.Context, sessionID uuid.UUID, status entities.SessionStatus) (*entities.Session, error)
	Diversity(ctx context.Context, sessionID uuid.UUID) (*Diversity, error)
	ListSyntheses(ctx context.Context, sessionID uuid.UUID) ([]*entities.Synthesis, error)
	GetSynthesis(ctx context.Context, id uuid.UUID) (*entities.Synthesis, error)
}

type service struct {
	repo        repositories.ConsensusRepository
	store       ObjectStore
	transcriber Transcriber
	logger      *zap.Logger
}

// NewService creates a participation service. store and transcriber are
// optional; without them attachment submissions are rejected.
func NewService(repo repositories.ConsensusRepository, store ObjectStore, transcriber Transcriber, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		repo:        repo,
		store:       store,
		transcriber: transcriber,
		logger:      logger,
	}
}

func (s *service) CreateSession(ctx context.Context, input CreateSessionInput) (*entities.Session, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ucerrors.Validation(ucerrors.ErrEmptyContent, "title")
	}
	if !input.Type.Valid() {
		return nil, ucerrors.Validation(ucerrors.ErrInvalidSessionType, string(input.Type))
	}
	for _, st := range input.Stakeholders {
		if !st.Role.Valid() {
			return nil, ucerrors.Validation(ucerrors.ErrInvalidRole, string(st.Role))
		}
	}

	session := entities.NewSession(title, input.Type)
	session.Description = input.Description
	session.FacilitatorID = input.FacilitatorID

	stakeholders := make([]entities.Stakeholder, 0, len(input.Stakeholders))
	err := s.repo.Transaction(ctx, func(tx repositories.ConsensusRepository) error {
		if err := tx.CreateSession(ctx, session); err != nil {
			return err
		}
		for _, in := range input.Stakeholders {
			st := entities.NewStakeholder(session.ID, strings.TrimSpace(in.Name), in.Email, in.Role)
			if err := tx.CreateStakeholder(ctx, st); err != nil {
				return err
			}
			stakeholders = append(stakeholders, *st)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	session.Stakeholders = stakeholders

	s.logger.Info("🆕 Session created",
		zap.String("session_id", session.ID.String()),
		zap.String("type", string(session.Type)),
		zap.Int("stakeholders", len(stakeholders)),
	)
	return session, nil
}

func (s *service) GetSession(ctx context.Context, id uuid.UUID) (*entities.Session, error) {
	session, err := s.repo.GetSessionWithSubmissions(ctx, id)
	if err != nil {
		return nil, lookupError("session", id, err)
	}
	return session, nil
}

func (s *service) AddStakeholder(ctx context.Context, sessionID uuid.UUID, input StakeholderInput) (*entities.Stakeholder, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ucerrors.Validation(ucerrors.ErrEmptyContent, "name")
	}
	if !input.Role.Valid() {
		return nil, ucerrors.Validation(ucerrors.ErrInvalidRole, string(input.Role))
	}
	if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
		return nil, lookupError("session", sessionID, err)
	}

	stakeholder := entities.NewStakeholder(sessionID, name, input.Email, input.Role)
	if err := s.repo.CreateStakeholder(ctx, stakeholder); err != nil {
		return nil, fmt.Errorf("failed to add stakeholder: %w", err)
	}
	return stakeholder, nil
}

func (s *service) SubmitPerspective(ctx context.Context, sessionID uuid.UUID, input PerspectiveInput) (*entities.Submission, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ucerrors.Validation(ucerrors.ErrEmptyContent, "content")
	}

	stakeholder, err := s.member(ctx, sessionID, input.StakeholderID)
	if err != nil {
		return nil, err
	}

	submission := entities.NewSubmission(sessionID, stakeholder.ID, content)
	if err := s.repo.CreateSubmission(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}
	submission.Stakeholder = stakeholder

	s.logger.Info("📝 Perspective submitted",
		zap.String("session_id", sessionID.String()),
		zap.String("role", string(stakeholder.Role)),
	)
	return submission, nil
}

func (s *service) SubmitAttachment(ctx context.Context, sessionID uuid.UUID, input AttachmentInput) (*entities.Submission, error) {
	switch input.Type {
	case entities.SubmissionTypeDocument:
		if s.store == nil {
			return nil, ucerrors.Validation(ucerrors.ErrAttachmentsDisabled, "document")
		}
	case entities.SubmissionTypeAudio:
		if s.store == nil || s.transcriber == nil {
			return nil, ucerrors.Validation(ucerrors.ErrAttachmentsDisabled, "audio")
		}
	default:
		return nil, ucerrors.Validation(ucerrors.ErrUnsupportedAttachment, string(input.Type))
	}
	if input.Reader == nil || input.Size <= 0 {
		return nil, ucerrors.Validation(ucerrors.ErrEmptyContent, "file")
	}

	stakeholder, err := s.member(ctx, sessionID, input.StakeholderID)
	if err != nil {
		return nil, err
	}

	key := ObjectKey(sessionID, input.Filename)

	var content string
	if input.Type == entities.SubmissionTypeDocument {
		content, err = s.storeDocument(ctx, key, input)
	} else {
		content, err = s.storeAudio(ctx, key, input)
	}
	if err != nil {
		return nil, err
	}

	fileURL := s.store.ObjectURL(key)
	submission := entities.NewSubmission(sessionID, stakeholder.ID, content)
	submission.Type = input.Type
	submission.FileURL = &fileURL
	if err := s.repo.CreateSubmission(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}
	submission.Stakeholder = stakeholder

	s.logger.Info("📎 Attachment submitted",
		zap.String("session_id", sessionID.String()),
		zap.String("type", string(input.Type)),
		zap.String("object", key),
	)
	return submission, nil
}

// storeDocument uploads a UTF-8 text document and returns it as content
func (s *service) storeDocument(ctx context.Context, key string, input AttachmentInput) (string, error) {
	if input.Size > MaxDocumentBytes {
		return "", ucerrors.Validation(ucerrors.ErrUnsupportedAttachment, "document too large")
	}
	data, err := io.ReadAll(io.LimitReader(input.Reader, MaxDocumentBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	if len(data) > MaxDocumentBytes {
		return "", ucerrors.Validation(ucerrors.ErrUnsupportedAttachment, "document too large")
	}
	if !utf8.Valid(data) {
		return "", ucerrors.Validation(ucerrors.ErrUnsupportedAttachment, "document must be UTF-8 text")
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return "", ucerrors.Validation(ucerrors.ErrEmptyContent, "document")
	}

	if err := s.store.UploadFile(ctx, key, bytes.NewReader(data), int64(len(data)), contentTypeOr(input.ContentType, "text/plain")); err != nil {
		return "", &StorageError{Op: "upload", Err: err}
	}
	return content, nil
}

// storeAudio uploads a recording and returns its transcript
func (s *service) storeAudio(ctx context.Context, key string, input AttachmentInput) (string, error) {
	if err := s.store.UploadFile(ctx, key, input.Reader, input.Size, contentTypeOr(input.ContentType, "application/octet-stream")); err != nil {
		return "", &StorageError{Op: "upload", Err: err}
	}

	url, err := s.store.GetFileURL(ctx, key, presignExpiry)
	if err != nil {
		return "", &StorageError{Op: "presign", Err: err}
	}

	text, err := s.transcriber.Transcribe(ctx, url)
	if err != nil {
		return "", &TranscriptionError{Err: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ucerrors.Validation(ucerrors.ErrEmptyContent, "transcript")
	}
	return text, nil
}

func (s *service) AddCritique(ctx context.Context, synthesisID uuid.UUID, input CritiqueInput) (*entities.Critique, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ucerrors.Validation(ucerrors.ErrEmptyContent, "content")
	}

	syn, err := s.repo.GetSynthesisWithContext(ctx, synthesisID)
	if err != nil {
		return nil, lookupError("synthesis", synthesisID, err)
	}

	stakeholder, err := s.member(ctx, syn.SessionID, input.StakeholderID)
	if err != nil {
		return nil, err
	}

	critique := entities.NewCritique(synthesisID, stakeholder.ID, content)
	if err := s.repo.CreateCritique(ctx, critique); err != nil {
		return nil, fmt.Errorf("failed to store critique: %w", err)
	}
	critique.Stakeholder = stakeholder

	s.logger.Info("💬 Critique added",
		zap.String("synthesis_id", synthesisID.String()),
		zap.Int("version", syn.Version),
	)
	return critique, nil
}

func (s *service) UpdateStatus(ctx context.Context, sessionID uuid.UUID, status entities.SessionStatus) (*entities.Session, error) {
	if !status.Valid() {
		return nil, ucerrors.Validation(ucerrors.ErrInvalidStatus, string(status))
	}
	if err := s.repo.UpdateSessionStatus(ctx, sessionID, status); err != nil {
		return nil, lookupError("session", sessionID, err)
	}
	return s.GetSession(ctx, sessionID)
}

func (s *service) Diversity(ctx context.Context, sessionID uuid.UUID) (*Diversity, error) {
	session, err := s.repo.GetSessionWithSubmissions(ctx, sessionID)
	if err != nil {
		return nil, lookupError("session", sessionID, err)
	}

	texts := make([]string, 0, len(session.Submissions))
	tokens := 0
	for _, sub := range session.Submissions {
		texts = append(texts, sub.Content)
		tokens += ai.EstimateTokens(sub.Content)
	}

	return &Diversity{
		Index:           synthesis.DiversityIndex(texts),
		SubmissionCount: len(texts),
		TokenEstimate:   tokens,
	}, nil
}

func (s *service) ListSyntheses(ctx context.Context, sessionID uuid.UUID) ([]*entities.Synthesis, error) {
	if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
		return nil, lookupError("session", sessionID, err)
	}
	list, err := s.repo.ListSyntheses(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list syntheses: %w", err)
	}
	return list, nil
}

func (s *service) GetSynthesis(ctx context.Context, id uuid.UUID) (*entities.Synthesis, error) {
	syn, err := s.repo.GetSynthesisWithContext(ctx, id)
	if err != nil {
		return nil, lookupError("synthesis", id, err)
	}
	return syn, nil
}

// member loads a stakeholder and checks it belongs to sessionID
func (s *service) member(ctx context.Context, sessionID, stakeholderID uuid.UUID) (*entities.Stakeholder, error) {
	if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
		return nil, lookupError("session", sessionID, err)
	}
	stakeholder, err := s.repo.GetStakeholder(ctx, stakeholderID)
	if err != nil {
		return nil, lookupError("stakeholder", stakeholderID, err)
	}
	if stakeholder.SessionID != sessionID {
		return nil, ucerrors.Validation(ucerrors.ErrForeignStakeholder, stakeholderID.String())
	}
	return stakeholder, nil
}

// ObjectKey is where an attachment for sessionID is stored
func ObjectKey(sessionID uuid.UUID, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "attachment"
	}
	return fmt.Sprintf("sessions/%s/submissions/%s-%s", sessionID, uuid.New(), name)
}

func contentTypeOr(contentType, fallback string) string {
	if contentType == "" {
		return fallback
	}
	return contentType
}

func lookupError(resource string, id uuid.UUID, err error) error {
	switch {
	case errors.Is(err, entities.ErrSessionNotFound),
		errors.Is(err, entities.ErrStakeholderNotFound),
		errors.Is(err, entities.ErrSynthesisNotFound):
		return ucerrors.NotFound(resource, id.String(), err)
	}
	return fmt.Errorf("failed to load %s: %w", resource, err)
}
