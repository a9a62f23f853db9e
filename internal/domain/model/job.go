package model

import (
	"encoding/json"
	"time"
)

// TranscriptionJob is the immutable envelope describing one transcription
// unit as carried on the queue. The wire form is a flat JSON object; an
// absent language hint is serialized as an explicit null.
type TranscriptionJob struct {
	RecordID     int64  `json:"record_id"`
	CallID       string `json:"call_id"`
	RecordingURL string `json:"recording_url"`
	Engine       string `json:"engine"`
	Language     string `json:"language"`
}

func (j TranscriptionJob) MarshalJSON() ([]byte, error) {
	type wire struct {
		RecordID     int64   `json:"record_id"`
		CallID       string  `json:"call_id"`
		RecordingURL string  `json:"recording_url"`
		Engine       string  `json:"engine"`
		Language     *string `json:"language"`
	}
	w := wire{
		RecordID:     j.RecordID,
		CallID:       j.CallID,
		RecordingURL: j.RecordingURL,
		Engine:       j.Engine,
	}
	if j.Language != "" {
		w.Language = &j.Language
	}
	return json.Marshal(w)
}

// DedupKey returns the stable idempotency key for the job. Language is
// deliberately excluded: the same call/recording/engine triple is the same
// logical job regardless of the hint.
func (j TranscriptionJob) DedupKey() string {
	return j.CallID + "|" + j.RecordingURL + "|" + j.Engine
}

// JobFromRecord builds a queue envelope from a downloaded call record.
func JobFromRecord(rec *CallRecord, engine string) TranscriptionJob {
	return TranscriptionJob{
		RecordID:     rec.ID,
		CallID:       rec.CallID,
		RecordingURL: rec.RecordingURL,
		Engine:       engine,
		Language:     rec.Language,
	}
}

// DLQEntry wraps a failed job together with its failure description.
// EntryID is derived from the serialized payload by the queue layer and is
// not part of the wire form.
type DLQEntry struct {
	Job        TranscriptionJob `json:"job"`
	Reason     string           `json:"reason"`
	FailedAt   time.Time        `json:"failed_at"`
	StatusCode *int             `json:"status_code,omitempty"`

	EntryID string `json:"-"`
}
