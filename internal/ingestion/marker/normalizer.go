package marker

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// DocContext is everything about the containing document the rules may
// require: the selected entity anchor, a known base version, and
// summary-supplied hints for anchor fallback.
type DocContext struct {
	Anchor      *EntityAnchor
	BaseVersion string
	Hints       []EntityHint
}

// Outcome is the typed result of normalizing one mention. Status is the
// control flow: callers match on it, nothing here is an error.
type Outcome struct {
	Status        types.MarkerStatus
	CanonicalForm string
	CanonicalID   *uuid.UUID
	RuleID        string
	Confidence    float64
	CreatedBy     string
}

// CanonicalWriter ensures a canonical marker row exists and returns its id.
// Backed by the marker repo in production; a map in tests.
type CanonicalWriter interface {
	EnsureCanonicalMarker(ctx context.Context, tenantID uuid.UUID, canonicalForm, entityAnchor, markerType, createdBy string, confidence float64) (uuid.UUID, error)
}

type Normalizer struct {
	log     *logger.Logger
	writer  CanonicalWriter
	anchors AnchorSource
}

func NewNormalizer(log *logger.Logger, writer CanonicalWriter, anchors AnchorSource) (*Normalizer, error) {
	if log == nil {
		return nil, fmt.Errorf("marker: logger required")
	}
	if writer == nil {
		return nil, fmt.Errorf("marker: canonical writer required")
	}
	return &Normalizer{
		log:     log.With("component", "MarkerNormalizer"),
		writer:  writer,
		anchors: anchors,
	}, nil
}

// ResolveDocContext assembles the document context rules evaluate against:
// graph anchors first, falling back to summary hints.
func (n *Normalizer) ResolveDocContext(ctx context.Context, cfg *Config, tenantID, fileID uuid.UUID, baseVersion string, hints []EntityHint) (DocContext, error) {
	dc := DocContext{BaseVersion: baseVersion, Hints: hints}
	var candidates []EntityAnchor
	if n.anchors != nil {
		got, err := n.anchors.CandidateAnchors(ctx, tenantID, fileID)
		if err != nil {
			// A graph outage degrades to hints; it never fails the document.
			n.log.Warn("anchor read failed, falling back to hints", "file_id", fileID, "error", err)
		} else {
			candidates = got
		}
	}
	if anchor, ok := SelectAnchor(candidates, hints, cfg.Constraints.SingleEntityRequired); ok {
		dc.Anchor = &anchor
	}
	return dc, nil
}

// Normalize resolves one raw mention against the tenant config, in strict
// order: blacklist, exact alias, rules by priority, else unresolved.
func (n *Normalizer) Normalize(ctx context.Context, cfg *Config, tenantID uuid.UUID, rawText string, dc DocContext) (Outcome, error) {
	if cfg.blacklisted(rawText) {
		return Outcome{Status: types.MarkerBlacklisted}, nil
	}

	if canonical, ok := cfg.Aliases[strings.TrimSpace(rawText)]; ok {
		id, err := n.writer.EnsureCanonicalMarker(ctx, tenantID, canonical, anchorName(dc), "version", "alias:exact", 1.0)
		if err != nil {
			return Outcome{}, fmt.Errorf("marker: ensure canonical: %w", err)
		}
		return Outcome{
			Status:        types.MarkerResolved,
			CanonicalForm: canonical,
			CanonicalID:   &id,
			Confidence:    1.0,
			CreatedBy:     "alias:exact",
		}, nil
	}

	for i := range cfg.Rules {
		rule := &cfg.Rules[i]
		if !rule.Enabled {
			continue
		}
		if rule.RequiresEntity && dc.Anchor == nil {
			continue
		}
		if rule.RequiresStrongEntity && (dc.Anchor == nil || !dc.Anchor.Strong()) {
			continue
		}
		if rule.RequiresBaseVersion && dc.BaseVersion == "" {
			continue
		}
		m := rule.re.FindStringSubmatch(rawText)
		if m == nil {
			continue
		}
		canonical := interpolate(rule.OutputTemplate, m, dc)
		if strings.TrimSpace(canonical) == "" {
			continue
		}
		createdBy := "rule:" + rule.ID
		id, err := n.writer.EnsureCanonicalMarker(ctx, tenantID, canonical, anchorName(dc), "version", createdBy, rule.Confidence)
		if err != nil {
			return Outcome{}, fmt.Errorf("marker: ensure canonical: %w", err)
		}
		return Outcome{
			Status:        types.MarkerResolved,
			CanonicalForm: canonical,
			CanonicalID:   &id,
			RuleID:        rule.ID,
			Confidence:    rule.Confidence,
			CreatedBy:     createdBy,
		}, nil
	}

	return Outcome{Status: types.MarkerUnresolved}, nil
}

// NormalizeMentions resolves a batch of raw mentions for one document and
// returns persisted-shaped rows in input order.
func (n *Normalizer) NormalizeMentions(ctx context.Context, cfg *Config, tenantID, fileID uuid.UUID, mentions []types.MarkerMention, dc DocContext) ([]*types.MarkerMention, error) {
	out := make([]*types.MarkerMention, 0, len(mentions))
	for i := range mentions {
		m := mentions[i]
		m.TenantID = tenantID
		m.MaterialFileID = fileID
		outcome, err := n.Normalize(ctx, cfg, tenantID, m.RawText, dc)
		if err != nil {
			return nil, err
		}
		m.Status = outcome.Status
		m.CanonicalMarkerID = outcome.CanonicalID
		m.RuleID = outcome.RuleID
		m.Confidence = outcome.Confidence
		out = append(out, &m)
	}
	return out, nil
}

func anchorName(dc DocContext) string {
	if dc.Anchor == nil {
		return ""
	}
	return dc.Anchor.Name
}

var capturePlaceholder = regexp.MustCompile(`\{\$(\d+)\}`)

// interpolate fills {entity}, {base_version}, and {$N} capture groups into
// a rule's output template. A placeholder with no value leaves the empty
// string; the caller skips rules whose interpolation comes out empty.
func interpolate(template string, match []string, dc DocContext) string {
	out := strings.ReplaceAll(template, "{entity}", anchorName(dc))
	out = strings.ReplaceAll(out, "{base_version}", dc.BaseVersion)
	out = capturePlaceholder.ReplaceAllStringFunc(out, func(ph string) string {
		sub := capturePlaceholder.FindStringSubmatch(ph)
		idx := 0
		fmt.Sscanf(sub[1], "%d", &idx)
		if idx >= 1 && idx < len(match) {
			return match[idx]
		}
		return ""
	})
	return strings.TrimSpace(strings.Join(strings.Fields(out), " "))
}
