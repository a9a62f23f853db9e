package adapter

import (
	"context"
	"errors"
	"fmt"

	"call-stt-pipeline/internal/domain/model"
)

// TranscriptionResult carries the metadata of a successful transcription.
type TranscriptionResult struct {
	TranscriptPath string
	Language       string
}

// SpeechToTextProvider is the capability the worker depends on. The router
// and every backend implement it.
type SpeechToTextProvider interface {
	Transcribe(ctx context.Context, job model.TranscriptionJob) (*TranscriptionResult, error)
}

// TranscriptionError is the typed failure a provider reports. StatusCode is
// zero when no HTTP status is known (transport failures, misconfiguration).
type TranscriptionError struct {
	StatusCode int
	Message    string
}

func (e *TranscriptionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
	}
	return e.Message
}

// FailureClass drives the worker's retry decision.
type FailureClass int

const (
	// FailureRetryable covers server-side errors, transport failures and
	// anything unexpected; retried with backoff.
	FailureRetryable FailureClass = iota
	// FailureTerminal covers 4xx-classified provider errors that can never
	// succeed as-is; dead-lettered immediately.
	FailureTerminal
)

// ClassifyFailure maps a provider error to its class and HTTP status code
// (0 when none). The retry decision is a pure function of the result.
func ClassifyFailure(err error) (FailureClass, int) {
	var terr *TranscriptionError
	if errors.As(err, &terr) {
		if terr.StatusCode >= 400 && terr.StatusCode < 500 {
			return FailureTerminal, terr.StatusCode
		}
		return FailureRetryable, terr.StatusCode
	}
	return FailureRetryable, 0
}
