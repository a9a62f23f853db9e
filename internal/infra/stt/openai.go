package stt

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"call-stt-pipeline/internal/config"
	"call-stt-pipeline/internal/domain/model"
	"call-stt-pipeline/internal/domain/ports/adapter"
)

var _ adapter.SpeechToTextProvider = (*OpenAIWhisperProvider)(nil)

// OpenAIWhisperProvider uploads audio to the OpenAI Whisper transcription API.
type OpenAIWhisperProvider struct {
	apiKey          string
	base            string // e.g., https://api.openai.com/v1
	model           string
	defaultLanguage string
	transcriptsDir  string
	maxFileSizeMB   int
	client          *http.Client
}

func NewOpenAIWhisperProvider(cfg *config.STTConfig) (*OpenAIWhisperProvider, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, errors.New("openai api key empty")
	}
	return &OpenAIWhisperProvider{
		apiKey:          cfg.OpenAI.APIKey,
		base:            strings.TrimRight(cfg.OpenAI.BaseURL, "/"),
		model:           cfg.OpenAI.Model,
		defaultLanguage: cfg.DefaultLanguage,
		transcriptsDir:  cfg.TranscriptsDir,
		maxFileSizeMB:   cfg.MaxFileSizeMB,
		client:          &http.Client{Timeout: requestTimeout(cfg)},
	}, nil
}

func (p *OpenAIWhisperProvider) Transcribe(ctx context.Context, job model.TranscriptionJob) (*adapter.TranscriptionResult, error) {
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
	fields := map[string]string{"model": p.model}
	if language != "" {
		fields["language"] = language
	}
	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}

	payload, err := postAudio(ctx, p.client, p.base+"/audio/transcriptions", headers, fields, filename, audio)
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

func requestTimeout(cfg *config.STTConfig) time.Duration {
	if cfg.RequestTimeout > 0 {
		return cfg.RequestTimeout
	}
	return 60 * time.Second
}
