package model

import "time"

type CallRecordStatus string

const (
	CallRecordStatusPending      CallRecordStatus = "pending"
	CallRecordStatusDownloaded   CallRecordStatus = "downloaded"
	CallRecordStatusTranscribing CallRecordStatus = "transcribing"
	CallRecordStatusCompleted    CallRecordStatus = "completed"
	CallRecordStatusError        CallRecordStatus = "error"
	CallRecordStatusMissingAudio CallRecordStatus = "missing_audio"
)

// CallRecord is the projection of a downloaded call recording that the
// transcription pipeline reads and transitions. Records are created and
// deleted by the export layer; this side only moves status and writes
// transcription outcome fields.
type CallRecord struct {
	ID             int64
	CallID         string
	RecordingURL   string
	Status         CallRecordStatus
	RetryCount     int
	LastRetryAt    *time.Time
	TranscriptPath string
	Language       string
	ErrorCode      string
	ErrorMessage   string
}
