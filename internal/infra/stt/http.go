package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"call-stt-pipeline/internal/domain/ports/adapter"
)

// downloadRecording fetches the recording audio. Plain paths and file://
// URLs read from the local filesystem; http(s) URLs are fetched with the
// provider's client. Non-200 download responses keep their status code so
// the worker can classify them.
func downloadRecording(ctx context.Context, client *http.Client, recordingURL string) ([]byte, string, error) {
	parsed, err := url.Parse(recordingURL)
	if err != nil || parsed.Scheme == "" || parsed.Scheme == "file" {
		p := recordingURL
		if parsed != nil && parsed.Scheme == "file" {
			p = parsed.Path
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, "", &adapter.TranscriptionError{Message: fmt.Sprintf("recording not found at %s", recordingURL)}
		}
		return data, path.Base(p), nil
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, "", &adapter.TranscriptionError{Message: fmt.Sprintf("unsupported recording URL scheme: %s", parsed.Scheme)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, recordingURL, nil)
	if err != nil {
		return nil, "", &adapter.TranscriptionError{Message: err.Error()}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", &adapter.TranscriptionError{Message: fmt.Sprintf("download recording: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &adapter.TranscriptionError{Message: fmt.Sprintf("read recording: %v", err)}
	}
	if resp.StatusCode != http.StatusOK {
		msg := extractErrorMessage(body)
		if msg == "" {
			msg = "unable to download recording"
		}
		return nil, "", &adapter.TranscriptionError{StatusCode: resp.StatusCode, Message: msg}
	}

	filename := path.Base(parsed.Path)
	if filename == "" || filename == "/" || filename == "." {
		filename = "recording"
	}
	return body, filename, nil
}

// extractErrorMessage pulls a human-readable message out of a JSON error
// body ({"error": {"message": ...}} or {"message": ...}), falling back to
// the raw text.
func extractErrorMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	if errObj, ok := payload["error"].(map[string]any); ok {
		if msg, ok := errObj["message"].(string); ok {
			return msg
		}
	}
	if msg, ok := payload["message"].(string); ok {
		return msg
	}
	return ""
}

func enforceSizeLimit(maxFileSizeMB int, size int) error {
	if maxFileSizeMB <= 0 {
		return nil
	}
	limit := maxFileSizeMB * 1024 * 1024
	if size <= limit {
		return nil
	}
	sizeMB := float64(size) / (1024 * 1024)
	return &adapter.TranscriptionError{
		StatusCode: http.StatusRequestEntityTooLarge,
		Message:    fmt.Sprintf("recording size %.1f MB exceeds %d MB limit", sizeMB, maxFileSizeMB),
	}
}

type transcriptionResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// postAudio uploads the audio as multipart form data and decodes the
// {text, language} response shared by both HTTP backends.
func postAudio(ctx context.Context, client *http.Client, endpoint string, headers map[string]string, fields map[string]string, filename string, audio []byte) (*transcriptionResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, &adapter.TranscriptionError{Message: err.Error()}
		}
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, &adapter.TranscriptionError{Message: err.Error()}
	}
	if _, err := part.Write(audio); err != nil {
		return nil, &adapter.TranscriptionError{Message: err.Error()}
	}
	if err := mw.Close(); err != nil {
		return nil, &adapter.TranscriptionError{Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, &adapter.TranscriptionError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &adapter.TranscriptionError{Message: fmt.Sprintf("stt request: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &adapter.TranscriptionError{Message: fmt.Sprintf("read stt response: %v", err)}
	}
	if resp.StatusCode != http.StatusOK {
		msg := extractErrorMessage(body)
		if msg == "" {
			msg = "stt provider error"
		}
		return nil, &adapter.TranscriptionError{StatusCode: resp.StatusCode, Message: msg}
	}

	var payload transcriptionResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &adapter.TranscriptionError{Message: "unexpected response from stt backend"}
	}
	if payload.Text == "" {
		return nil, &adapter.TranscriptionError{Message: "stt response is missing transcript text"}
	}
	return &payload, nil
}
