package stt

import (
	"context"
	"os"
	"path/filepath"

	"call-stt-pipeline/internal/domain/model"
	"call-stt-pipeline/internal/domain/ports/adapter"
)

var _ adapter.SpeechToTextProvider = (*StubTranscriber)(nil)

// StubTranscriber is a minimal local transcriber used until a real backend
// is wired in. It never fails and keeps an existing transcript untouched.
type StubTranscriber struct {
	transcriptsDir string
}

func NewStubTranscriber(transcriptsDir string) *StubTranscriber {
	return &StubTranscriber{transcriptsDir: transcriptsDir}
}

func (s *StubTranscriber) Transcribe(_ context.Context, job model.TranscriptionJob) (*adapter.TranscriptionResult, error) {
	if err := os.MkdirAll(s.transcriptsDir, 0o755); err != nil {
		return nil, &adapter.TranscriptionError{Message: err.Error()}
	}
	path := filepath.Join(s.transcriptsDir, sanitizeCallID(job.CallID)+".txt")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		const placeholder = "Transcription placeholder. Configure a real STT provider to replace this output.\n"
		if err := os.WriteFile(path, []byte(placeholder), 0o644); err != nil {
			return nil, &adapter.TranscriptionError{Message: err.Error()}
		}
	}
	return &adapter.TranscriptionResult{TranscriptPath: path, Language: job.Language}, nil
}
