package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-backend/internal/data/repos"
	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// Extractor turns a material file's native bytes into persisted,
// layout-aware chunks. It never computes concept-focused chunks and never
// assumes a specific upstream storage or OCR provider -- bytes and MIME type
// are handed to it directly by the caller.
type Extractor struct {
	DB  *gorm.DB
	Log *logger.Logger

	MaterialChunkRepo        repos.MaterialChunkRepo
	MaterialFileRepo         repos.MaterialFileRepo
	MaterialFileSectionRepo  repos.MaterialFileSectionRepo

	ChunkSizeTokens  int
	ChunkOverlap     int
	MinChunkTokens   int
	OrphanOverlapMin int
}

func New(
	db *gorm.DB,
	log *logger.Logger,
	materialChunkRepo repos.MaterialChunkRepo,
	materialFileRepo repos.MaterialFileRepo,
	materialFileSectionRepo repos.MaterialFileSectionRepo,
) *Extractor {
	return &Extractor{
		DB:  db,
		Log: log.With("component", "ChunkingEngine"),

		MaterialChunkRepo:       materialChunkRepo,
		MaterialFileRepo:        materialFileRepo,
		MaterialFileSectionRepo: materialFileSectionRepo,

		ChunkSizeTokens:  defaultChunkSizeTokens,
		ChunkOverlap:     defaultChunkOverlap,
		MinChunkTokens:   defaultMinChunkTokens,
		OrphanOverlapMin: defaultOrphanOverlapMin,
	}
}

// BestEffortNativeText extracts plain text from raw bytes using only the
// file's declared name/MIME type, never an external OCR or vision provider.
func (e *Extractor) BestEffortNativeText(name, mime string, data []byte) (string, string, map[string]any) {
	diag := map[string]any{"native": true}
	if len(data) == 0 {
		diag["empty"] = true
		return "", "native extraction skipped (no bytes)", diag
	}
	txt, err := ExtractTextStrict(name, mime, data)
	if err != nil {
		diag["err"] = err.Error()
		return "", "native extraction failed: " + err.Error(), diag
	}
	txt = collapseWhitespace(txt)
	if strings.TrimSpace(txt) == "" {
		return "", "native extraction produced empty text", diag
	}
	return txt, "", diag
}

// ChunkAndPersist runs the layout-aware chunking algorithm over text and
// inserts the resulting chunks for mf as new rows; chunks from a prior
// pass over the same file are not removed. segmentID lookups are positional: the segment at
// index i in segs is the candidate for ProtoChunk.SegmentID == i. The
// second return value carries each chunk's anchors in chunk-local
// coordinates (parallel to the chunk slice) so the caller can persist the
// anchor rows once proto-concept ids exist.
func (e *Extractor) ChunkAndPersist(ctx context.Context, tx *gorm.DB, mf *types.MaterialFile, text string, segs []Segment, anchors []Anchor) ([]*types.MaterialChunk, [][]Anchor, error) {
	transaction := tx
	if transaction == nil {
		transaction = e.DB
	}
	ctx = defaultCtx(ctx)

	proto := ChunkDocument(text, segs, anchors, e.ChunkSizeTokens, e.ChunkOverlap, e.MinChunkTokens, e.OrphanOverlapMin)

	now := time.Now()
	chunks := make([]*types.MaterialChunk, 0, len(proto))
	chunkAnchors := make([][]Anchor, 0, len(proto))
	for idx, pc := range proto {
		itemIDs, _ := json.Marshal([]string{})
		confSignals, _ := json.Marshal(pc.ConfidenceSignals)

		var page *int
		var startSec, endSec, confidence *float64
		var speakerTag *int
		if pc.SegmentID >= 0 && pc.SegmentID < len(segs) {
			seg := segs[pc.SegmentID]
			page = seg.Page
			startSec = seg.StartSec
			endSec = seg.EndSec
			confidence = seg.Confidence
			speakerTag = seg.SpeakerTag
		}

		meta := map[string]any{"char_start": pc.CharStart, "char_end": pc.CharEnd}
		metaJSON, _ := json.Marshal(meta)

		parseConf := pc.ParseConfidence
		chunk := &types.MaterialChunk{
			ID:                  uuid.New(),
			MaterialFileID:      mf.ID,
			Index:               idx,
			Text:                sanitizeUTF8(strings.TrimSpace(pc.Text)),
			Embedding:           datatypes.JSON(nil),
			Kind:                pc.Kind,
			Page:                page,
			StartSec:            startSec,
			EndSec:              endSec,
			SpeakerTag:          speakerTag,
			Confidence:          confidence,
			IsRelationBearing:   len(pc.Anchors) > 0,
			IsAtomic:            pc.IsAtomic,
			RegionType:          pc.RegionType,
			SegmentOverlapChars: pc.SegmentOverlapChars,
			ParseConfidence:     &parseConf,
			ItemIDs:             datatypes.JSON(itemIDs),
			ConfidenceSignals:   datatypes.JSON(confSignals),
			Metadata:            datatypes.JSON(metaJSON),
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		chunks = append(chunks, chunk)
		chunkAnchors = append(chunkAnchors, pc.Anchors)
	}

	if len(chunks) == 0 {
		chunkAnchors = append(chunkAnchors, nil)
		chunks = append(chunks, &types.MaterialChunk{
			ID:             uuid.New(),
			MaterialFileID: mf.ID,
			Index:          0,
			Text:           "No extractable content was produced for this file.",
			Kind:           "narrative",
			Embedding:      datatypes.JSON(nil),
			Metadata:       datatypes.JSON(mustJSON(map[string]any{"kind": "unextractable"})),
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	if _, err := e.MaterialChunkRepo.Create(ctx, transaction, chunks); err != nil {
		return nil, nil, fmt.Errorf("create material chunks: %w", err)
	}
	return chunks, chunkAnchors, nil
}

func (e *Extractor) UpdateMaterialFileExtractionStatus(ctx context.Context, tx *gorm.DB, mf *types.MaterialFile, kind string, warnings []string, diag map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = e.DB
	}

	payload := map[string]any{
		"kind":         kind,
		"warnings":     warnings,
		"diagnostics":  diag,
		"extracted_at": time.Now().UTC().Format(time.RFC3339),
	}
	b, _ := json.Marshal(payload)

	updates := map[string]any{
		"ai_type":    kind,
		"ai_topics":  datatypes.JSON(b),
		"updated_at": time.Now(),
	}
	if err := transaction.WithContext(ctx).Model(&types.MaterialFile{}).
		Where("id = ?", mf.ID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("update material_file extraction status: %w", err)
	}
	mf.AIType = kind
	mf.AITopics = datatypes.JSON(b)
	return nil
}
