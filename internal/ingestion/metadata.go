package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Metadata describes where an ingested job target came from.
type Metadata struct {
	Source    string `json:"source"`             // posting URL or input file path
	Timestamp string `json:"timestamp"`          // RFC3339 format
	Hash      string `json:"hash"`               // SHA256 hex digest of the description text
	Platform  string `json:"platform,omitempty"` // detected job board
	Rendered  bool   `json:"rendered,omitempty"` // true when the headless browser produced the text
}

// NewMetadata stamps content from source with the current time.
func NewMetadata(content string, source string) *Metadata {
	return &Metadata{
		Source:    source,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Hash:      computeHash(content),
	}
}

func computeHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
