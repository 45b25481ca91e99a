package participation

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/complexchaos/internal/adapter/repository"
	"github.com/johnquangdev/complexchaos/internal/adapter/repository/repositorytest"
	"github.com/johnquangdev/complexchaos/internal/domain/entities"
	ucerrors "github.com/johnquangdev/complexchaos/internal/usecase/errors"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	failPut error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStore) UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	if m.failPut != nil {
		return m.failPut
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectName] = data
	m.types[objectName] = contentType
	return nil
}

func (m *memoryStore) GetFileURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	return "https://files.test/" + objectName + "?signed=1", nil
}

func (m *memoryStore) ObjectURL(objectName string) string {
	return "s3://test/" + objectName
}

type fakeTranscriber struct {
	text string
	err  error
	urls []string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioURL string) (string, error) {
	f.urls = append(f.urls, audioURL)
	return f.text, f.err
}

func newTestService(t *testing.T) (*repository.ConsensusRepository, *memoryStore, *fakeTranscriber, Service) {
	t.Helper()
	repo := repositorytest.New(t)
	store := newMemoryStore()
	transcriber := &fakeTranscriber{text: "We need a phased rollout."}
	return repo, store, transcriber, NewService(repo, store, transcriber, nil)
}

func TestCreateSession(t *testing.T) {
	repo, _, _, svc := newTestService(t)
	ctx := context.Background()
	desc := "How to fund adaptation"

	session, err := svc.CreateSession(ctx, CreateSessionInput{
		Title:       "  Climate finance ",
		Description: &desc,
		Type:        entities.SessionTypeClimate,
		Stakeholders: []StakeholderInput{
			{Name: "Ana", Email: "ana@example.org", Role: entities.RoleDevelopedNation},
			{Name: "Kofi", Role: entities.RoleDevelopingNation},
		},
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if session.Title != "Climate finance" {
		t.Errorf("title = %q", session.Title)
	}
	if session.Status != entities.SessionStatusPending {
		t.Errorf("status = %q, want pending", session.Status)
	}

	stored, err := repo.GetSessionWithSubmissions(ctx, session.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(stored.Stakeholders) != 2 {
		t.Errorf("stakeholders = %d, want 2", len(stored.Stakeholders))
	}
	if stored.Description == nil || *stored.Description != desc {
		t.Errorf("description = %v", stored.Description)
	}
}

func TestCreateSession_Invalid(t *testing.T) {
	_, _, _, svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateSessionInput
		want  error
	}{
		{"blank title", CreateSessionInput{Title: " ", Type: entities.SessionTypeClimate}, ucerrors.ErrEmptyContent},
		{"unknown type", CreateSessionInput{Title: "T", Type: "sports"}, ucerrors.ErrInvalidSessionType},
		{"unknown role", CreateSessionInput{
			Title:        "T",
			Type:         entities.SessionTypeClimate,
			Stakeholders: []StakeholderInput{{Name: "X", Role: "lobbyist"}},
		}, ucerrors.ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateSession(ctx, tt.input)
			if !errors.Is(err, tt.want) || !errors.Is(err, ucerrors.ErrValidation) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSubmitPerspective(t *testing.T) {
	repo, _, _, svc := newTestService(t)
	fx := repositorytest.Seed(t, repo)
	ctx := context.Background()

	sub, err := svc.SubmitPerspective(ctx, fx.Session.ID, PerspectiveInput{
		StakeholderID: fx.Developing.ID,
		Content:       "  Equity first  ",
	})
	if err != nil {
		t.Fatalf("SubmitPerspective: %v", err)
	}
	if sub.Content != "Equity first" || sub.Type != entities.SubmissionTypeText {
		t.Errorf("submission = %+v", sub)
	}
	if sub.Role() != entities.RoleDevelopingNation {
		t.Errorf("role = %q", sub.Role())
	}

	session, err := svc.GetSession(ctx, fx.Session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if len(session.Submissions) != 1 {
		t.Errorf("submissions = %d, want 1", len(session.Submissions))
	}
}

func TestSubmitPerspective_Rejects(t *testing.T) {
	repo, _, _, svc := newTestService(t)
	fx := repositorytest.Seed(t, repo)
	other := repositorytest.Seed(t, repo)
	ctx := context.Background()

	t.Run("blank content", func(t *testing.T) {
		_, err := svc.SubmitPerspective(ctx, fx.Session.ID, PerspectiveInput{StakeholderID: fx.Developed.ID, Content: "\n\t"})
		if !errors.Is(err, ucerrors.ErrEmptyContent) {
			t.Fatalf("expected empty content, got %v", err)
		}
	})

	t.Run("stakeholder from another session", func(t *testing.T) {
		_, err := svc.SubmitPerspective(ctx, fx.Session.ID, PerspectiveInput{StakeholderID: other.Developed.ID, Content: "hi"})
		if !errors.Is(err, ucerrors.ErrForeignStakeholder) {
			t.Fatalf("expected foreign stakeholder, got %v", err)
		}
	})

	t.Run("unknown stakeholder", func(t *testing.T) {
		_, err := svc.SubmitPerspective(ctx, fx.Session.ID, PerspectiveInput{StakeholderID: uuid.New(), Content: "hi"})
		var nf *ucerrors.NotFoundError
		if !errors.As(err, &nf) || nf.Resource != "stakeholder" {
			t.Fatalf("expected stakeholder not found, got %v", err)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := svc.SubmitPerspective(ctx, uuid.New(), PerspectiveInput{StakeholderID: fx.Developed.ID, Content: "hi"})
		var nf *ucerrors.NotFoundError
		if !errors.As(err, &nf) || nf.Resource != "session" {
			t.Fatalf("expected session not found, got %v", err)
		}
	})
}

func TestSubmitAttachment_Document(t *testing.T) {
	repo, store, _, svc := newTestService(t)
	fx := repositorytest.Seed(t, repo)
	ctx := context.Background()
	body := "Position paper: finance must scale.\n"

	sub, err := svc.SubmitAttachment(ctx, fx.Session.ID, AttachmentInput{
		StakeholderID: fx.Developed.ID,
		Type:          entities.SubmissionTypeDocument,
		Filename:      "../../paper.txt",
		Size:          int64(len(body)),
		Reader:        strings.NewReader(body),
	})
	if err != nil {
		t.Fatalf("SubmitAttachment: %v", err)
	}

	if sub.Content != "Position paper: finance must scale." {
		t.Errorf("content = %q", sub.Content)
	}
	if sub.Type != entities.SubmissionTypeDocument || sub.FileURL == nil {
		t.Fatalf("submission = %+v", sub)
	}

	key := strings.TrimPrefix(*sub.FileURL, "s3://test/")
	prefix := "sessions/" + fx.Session.ID.String() + "/submissions/"
	if !strings.HasPrefix(key, prefix) || !strings.HasSuffix(key, "-paper.txt") {
		t.Errorf("unexpected object key %q", key)
	}
	if string(store.objects[key]) != body {
		t.Errorf("stored object = %q", store.objects[key])
	}
	if store.types[key] != "text/plain" {
		t.Errorf("content type = %q", store.types[key])
	}
}

func TestSubmitAttachment_DocumentMustBeText(t *testing.T) {
	repo, store, _, svc := newTestService(t)
	fx := repositorytest.Seed(t, repo)
	binary := []byte{0xff, 0xfe, 0x00, 0x01}

	_, err := svc.SubmitAttachment(context.Background(), fx.Session.ID, AttachmentInput{
		StakeholderID: fx.Developed.ID,
		Type:          entities.SubmissionTypeDocument,
		Filename:      "scan.pdf",
		Size:          int64(len(binary)),
		Reader:        bytes.NewReader(binary),
	})
	if !errors.Is(err, ucerrors.ErrUnsupportedAttachment) {
		t.Fatalf("expected unsupported attachment, got %v", err)
	}
	if len(store.objects) != 0 {
		t.Error("rejected document must not be uploaded")
	}
}

func TestSubmitAttachment_Audio(t *testing.T) {
	repo, store, transcriber, svc := newTestService(t)
	fx := repositorytest.Seed(t, repo)
	audio := []byte("RIFF....WAVE")

	sub, err := svc.SubmitAttachment(context.Background(), fx.Session.ID, AttachmentInput{
		StakeholderID: fx.Developing.ID,
		Type:          entities.SubmissionTypeAudio,
		Filename:      "statement.wav",
		ContentType:   "audio/wav",
		Size:          int64(len(audio)),
		Reader:        bytes.NewReader(audio),
	})
	if err != nil {
		t.Fatalf("SubmitAttachment: %v", err)
	}

	if sub.Content != "We need a phased rollout." {
		t.Errorf("content = %q", sub.Content)
	}
	if len(transcriber.urls) != 1 || !strings.HasPrefix(transcriber.urls[0], "https://files.test/sessions/") {
		t.Errorf("transcriber urls = %v", transcriber.urls)
	}
	if len(store.objects) != 1 {
		t.Errorf("objects = %d, want 1", len(store.objects))
	}
}

func TestSubmitAttachment_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled without storage", func(t *testing.T) {
		repo := repositorytest.New(t)
		fx := repositorytest.Seed(t, repo)
		svc := NewService(repo, nil, nil, nil)

		_, err := svc.SubmitAttachment(ctx, fx.Session.ID, AttachmentInput{
			StakeholderID: fx.Developed.ID,
			Type:          entities.SubmissionTypeDocument,
			Filename:      "a.txt",
			Size:          1,
			Reader:        strings.NewReader("a"),
		})
		if !errors.Is(err, ucerrors.ErrAttachmentsDisabled) {
			t.Fatalf("expected attachments disabled, got %v", err)
		}
	})

	t.Run("text type is not an attachment", func(t *testing.T) {
		repo, _, _, svc := newTestService(t)
		fx := repositorytest.Seed(t, repo)

		_, err := svc.SubmitAttachment(ctx, fx.Session.ID, AttachmentInput{
			StakeholderID: fx.Developed.ID,
			Type:          entities.SubmissionTypeText,
			Size:          1,
			Reader:        strings.NewReader("a"),
		})
		if !errors.Is(err, ucerrors.ErrUnsupportedAttachment) {
			t.Fatalf("expected unsupported attachment, got %v", err)
		}
	})

	t.Run("upload failure", func(t *testing.T) {
		repo, store, _, svc := newTestService(t)
		fx := repositorytest.Seed(t, repo)
		store.failPut = errors.New("bucket unavailable")

		_, err := svc.SubmitAttachment(ctx, fx.Session.ID, AttachmentInput{
			StakeholderID: fx.Developed.ID,
			Type:          entities.SubmissionTypeDocument,
			Filename:      "a.txt",
			Size:          5,
			Reader:        strings.NewReader("hello"),
		})
		var se *StorageError
		if !errors.As(err, &se) || se.Op != "upload" {
			t.Fatalf("expected upload StorageError, got %v", err)
		}
	})

	t.Run("transcription failure", func(t *testing.T) {
		repo, _, transcriber, svc := newTestService(t)
		fx := repositorytest.Seed(t, repo)
		transcriber.err = errors.New("quota exceeded")

		_, err := svc.SubmitAttachment(ctx, fx.Session.ID, AttachmentInput{
			StakeholderID: fx.Developed.ID,
			Type:          entities.SubmissionTypeAudio,
			Filename:      "a.mp3",
			Size:          3,
			Reader:        strings.NewReader("ID3"),
		})
		var te *TranscriptionError
		if !errors.As(err, &te) {
			t.Fatalf("expected TranscriptionError, got %v", err)
		}
	})
}

func TestAddCritique(t *testing.T) {
	repo, _, _, svc := newTestService(t)
	fx := repositorytest.Seed(t, repo, "Finance must scale")
	other := repositorytest.Seed(t, repo)
	ctx := context.Background()

	syn := entities.NewSynthesis(fx.Session.ID, 1, "Draft", "test-model", 10,
		entities.NewGenerationMetadata(entities.GenerationMetadata{SubmissionCount: 1, GeneratedAt: time.Now().UTC()}))
	if err := repo.CreateSynthesis(ctx, syn); err != nil {
		t.Fatalf("CreateSynthesis: %v", err)
	}

	critique, err := svc.AddCritique(ctx, syn.ID, CritiqueInput{StakeholderID: fx.Developing.ID, Content: "Too vague on timelines"})
	if err != nil {
		t.Fatalf("AddCritique: %v", err)
	}
	if critique.SynthesisID != syn.ID {
		t.Errorf("synthesis id = %v", critique.SynthesisID)
	}

	loaded, err := svc.GetSynthesis(ctx, syn.ID)
	if err != nil {
		t.Fatalf("GetSynthesis: %v", err)
	}
	if len(loaded.Critiques) != 1 || loaded.Critiques[0].Content != "Too vague on timelines" {
		t.Errorf("critiques = %+v", loaded.Critiques)
	}

	_, err = svc.AddCritique(ctx, syn.ID, CritiqueInput{StakeholderID: other.Developed.ID, Content: "Outsider view"})
	if !errors.Is(err, ucerrors.ErrForeignStakeholder) {
		t.Errorf("expected foreign stakeholder, got %v", err)
	}

	_, err = svc.AddCritique(ctx, uuid.New(), CritiqueInput{StakeholderID: fx.Developing.ID, Content: "x"})
	if !errors.Is(err, ucerrors.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	repo, _, _, svc := newTestService(t)
	fx := repositorytest.Seed(t, repo)
	ctx := context.Background()

	session, err := svc.UpdateStatus(ctx, fx.Session.ID, entities.SessionStatusCompleted)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if session.Status != entities.SessionStatusCompleted {
		t.Errorf("status = %q", session.Status)
	}

	if _, err := svc.UpdateStatus(ctx, fx.Session.ID, "archived"); !errors.Is(err, ucerrors.ErrInvalidStatus) {
		t.Errorf("expected invalid status, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, uuid.New(), entities.SessionStatusActive); !errors.Is(err, ucerrors.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestDiversity(t *testing.T) {
	repo, _, _, svc := newTestService(t)
	fx := repositorytest.Seed(t, repo, "a a a", "a b c")
	empty := repositorytest.Seed(t, repo)
	ctx := context.Background()

	d, err := svc.Diversity(ctx, fx.Session.ID)
	if err != nil {
		t.Fatalf("Diversity: %v", err)
	}
	if math.Abs(d.Index-0.5) > 1e-9 {
		t.Errorf("index = %v, want 0.5", d.Index)
	}
	if d.SubmissionCount != 2 {
		t.Errorf("submission count = %d", d.SubmissionCount)
	}
	if d.TokenEstimate != 4 {
		t.Errorf("token estimate = %d, want 4", d.TokenEstimate)
	}

	d, err = svc.Diversity(ctx, empty.Session.ID)
	if err != nil {
		t.Fatalf("Diversity: %v", err)
	}
	if d.Index != 0 || d.SubmissionCount != 0 {
		t.Errorf("empty session diversity = %+v", d)
	}
}

func TestListSyntheses_UnknownSession(t *testing.T) {
	_, _, _, svc := newTestService(t)

	_, err := svc.ListSyntheses(context.Background(), uuid.New())
	if !errors.Is(err, ucerrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestObjectKey(t *testing.T) {
	id := uuid.MustParse("6f1c2a8e-0000-4000-8000-000000000001")

	tests := []struct {
		filename string
		suffix   string
	}{
		{"notes.txt", "-notes.txt"},
		{"a/b/../c.md", "-c.md"},
		{`C:\docs\memo.txt`, "-memo.txt"},
		{"", "-attachment"},
	}

	for _, tt := range tests {
		key := ObjectKey(id, tt.filename)
		if !strings.HasPrefix(key, "sessions/"+id.String()+"/submissions/") || !strings.HasSuffix(key, tt.suffix) {
			t.Errorf("ObjectKey(%q) = %q", tt.filename, key)
		}
	}
}
