package assemblyai

import (
	"context"
	"errors"
	"fmt"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"go.uber.org/zap"
)

// Transcriber turns recorded perspectives into text
type Transcriber struct {
	client *aai.Client
	logger *zap.Logger
}

// NewTranscriber creates a transcriber using the official SDK client
func NewTranscriber(apiKey string, logger *zap.Logger) *Transcriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transcriber{
		client: aai.NewClient(apiKey),
		logger: logger,
	}
}

// Transcribe submits audioURL and blocks until the transcript is finished
func (t *Transcriber) Transcribe(ctx context.Context, audioURL string) (string, error) {
	params := &aai.TranscriptOptionalParams{
		LanguageDetection: aai.Bool(true),
		Punctuate:         aai.Bool(true),
		FormatText:        aai.Bool(true),
	}

	t.logger.Info("🎙️ Starting transcription")

	transcript, err := t.client.Transcripts.TranscribeFromURL(ctx, audioURL, params)
	if err != nil {
		t.logger.Error("❌ AssemblyAI transcription failed", zap.Error(err))
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}

	if transcript.Status == aai.TranscriptStatusError {
		msg := "AssemblyAI transcription failed"
		if transcript.Error != nil {
			msg = fmt.Sprintf("AssemblyAI error: %s", *transcript.Error)
		}
		t.logger.Error("❌ AssemblyAI reported error", zap.String("error", msg))
		return "", errors.New(msg)
	}

	var text string
	if transcript.Text != nil {
		text = *transcript.Text
	}

	var id string
	if transcript.ID != nil {
		id = *transcript.ID
	}
	t.logger.Info("✅ Transcription completed",
		zap.String("transcript_id", id),
		zap.Int("characters", len(text)),
	)

	return text, nil
}
