package stt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// writeTranscript stores transcript text under the transcripts dir using a
// filesystem-safe name derived from the call id and returns the path.
func writeTranscript(transcriptsDir, callID, text string) (string, error) {
	if err := os.MkdirAll(transcriptsDir, 0o755); err != nil {
		return "", fmt.Errorf("create transcripts dir: %w", err)
	}
	path := filepath.Join(transcriptsDir, sanitizeCallID(callID)+".txt")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(text)+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return path, nil
}

func sanitizeCallID(callID string) string {
	var b strings.Builder
	for _, ch := range callID {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == '-', ch == '_':
			b.WriteRune(ch)
		default:
			b.WriteRune('_')
		}
	}
	stem := strings.Trim(b.String(), "._")
	if stem == "" {
		return "transcript"
	}
	return stem
}
