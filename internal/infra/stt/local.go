package stt

import (
	"context"
	"errors"
	"net/http"

	"call-stt-pipeline/internal/config"
	"call-stt-pipeline/internal/domain/model"
	"call-stt-pipeline/internal/domain/ports/adapter"
)

var _ adapter.SpeechToTextProvider = (*LocalTranscriptionProvider)(nil)

// LocalTranscriptionProvider forwards audio to a local HTTP STT backend
// speaking the same {text, language} response contract as Whisper.
type LocalTranscriptionProvider struct {
	endpoint        string
	apiKey          string
	defaultLanguage string
	transcriptsDir  string
	maxFileSizeMB   int
	client          *http.Client
}

func NewLocalTranscriptionProvider(cfg *config.STTConfig) (*LocalTranscriptionProvider, error) {
	if cfg.Local.URL == "" {
		return nil, errors.New("local stt url empty")
	}
	return &LocalTranscriptionProvider{
		endpoint:        cfg.Local.URL,
		apiKey:          cfg.Local.APIKey,
		defaultLanguage: cfg.DefaultLanguage,
		transcriptsDir:  cfg.TranscriptsDir,
		maxFileSizeMB:   cfg.MaxFileSizeMB,
		client:          &http.Client{Timeout: requestTimeout(cfg)},
	}, nil
}

func (p *LocalTranscriptionProvider) Transcribe(ctx context.Context, job model.TranscriptionJob) (*adapter.TranscriptionResult, error) {
	audio, filename, err := downloadRecording(ctx, p.client, job.RecordingURL)
	if err != nil {
		return nil, err
	}
	if err := enforceSizeLimit(p.maxFileSizeMB, len(audio)); err != nil {
		return nil, err
	}

	language := job.Language
	if language == "" {
		language = p.defaultLanguage
	}
	fields := map[string]string{}
	if language != "" {
		fields["language"] = language
	}
	headers := map[string]string{}
	if p.apiKey != "" {
		headers["Authorization"] = "Bearer " + p.apiKey
	}

	payload, err := postAudio(ctx, p.client, p.endpoint, headers, fields, filename, audio)
	if err != nil {
		return nil, err
	}

	transcriptPath, err := writeTranscript(p.transcriptsDir, job.CallID, payload.Text)
	if err != nil {
		return nil, &adapter.TranscriptionError{Message: err.Error()}
	}
	if payload.Language != "" {
		language = payload.Language
	}
	return &adapter.TranscriptionResult{TranscriptPath: transcriptPath, Language: language}, nil
}
