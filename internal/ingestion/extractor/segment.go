package extractor

import (
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/neurobridge-backend/internal/domain"
)

// Segment is a provider-agnostic slice of source material (a page, a
// paragraph, a transcript turn) produced before chunking.
type Segment = types.Segment

// ExtractionSummary reports what a native-text extraction pass produced for
// one material file, ahead of chunking.
type ExtractionSummary struct {
	MaterialFileID uuid.UUID      `json:"material_file_id"`
	StorageKey     string         `json:"storage_key"`
	Kind           string         `json:"kind"` // pdf|docx|pptx|text|unknown
	PrimaryTextLen int            `json:"primary_text_len"`
	Segments       []Segment      `json:"segments,omitempty"`
	Warnings       []string       `json:"warnings,omitempty"`
	Diagnostics    map[string]any `json:"diagnostics,omitempty"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
}
