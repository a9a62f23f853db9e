package stt

import (
	"context"
	"fmt"

	"call-stt-pipeline/internal/config"
	"call-stt-pipeline/internal/domain/model"
	"call-stt-pipeline/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

const (
	EngineStub   = "stub"
	EngineOpenAI = "openai-whisper"
	EngineLocal  = "local"
)

var _ adapter.SpeechToTextProvider = (*Router)(nil)

// Router dispatches jobs to the configured providers by engine name. The
// stub engine is always available; HTTP backends are registered only when
// enabled and fully configured.
type Router struct {
	providers     map[string]adapter.SpeechToTextProvider
	defaultEngine string
}

func NewRouter(cfg *config.STTConfig, log *zerolog.Logger) *Router {
	providers := map[string]adapter.SpeechToTextProvider{
		EngineStub: NewStubTranscriber(cfg.TranscriptsDir),
	}

	if cfg.OpenAI.Enabled {
		p, err := NewOpenAIWhisperProvider(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("skipping openai whisper provider")
		} else {
			providers[EngineOpenAI] = p
		}
	}
	if cfg.Local.Enabled {
		p, err := NewLocalTranscriptionProvider(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("skipping local stt provider")
		} else {
			providers[EngineLocal] = p
		}
	}

	defaultEngine := cfg.DefaultEngine
	if defaultEngine == "" {
		defaultEngine = EngineStub
	}
	return &Router{providers: providers, defaultEngine: defaultEngine}
}

func (r *Router) Transcribe(ctx context.Context, job model.TranscriptionJob) (*adapter.TranscriptionResult, error) {
	engine := job.Engine
	if engine == "" {
		engine = r.defaultEngine
	}
	provider, ok := r.providers[engine]
	if !ok {
		return nil, &adapter.TranscriptionError{Message: fmt.Sprintf("stt engine %q is not enabled", engine)}
	}
	return provider.Transcribe(ctx, job)
}
