// Package canonical resolves raw concept surface forms to canonical,
// tenant-deduplicated identities. Resolution is a three-step chain:
// ontology lookup, LLM fallback behind a circuit breaker, then a
// deterministic title-case fallback that never fails. Promotion of a
// resolved proto-concept is serialized per (tenant, canonical name) by a
// distributed lock; under lock loss the winner is found by read-after-write.
package canonical

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/llm"
	"github.com/yungbote/neurobridge-backend/internal/lock"
	pkgerrors "github.com/yungbote/neurobridge-backend/internal/pkg/errors"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

const (
	maxContextChars = 500
	lockTTL         = 5 * time.Second

	MethodOntology = "ontology"
	MethodLLM      = "llm"
	MethodFallback = "fallback"
)

// OntologyHit is a cataloged resolution: the surface form was found in the
// tenant ontology and no LLM call is needed.
type OntologyHit struct {
	CanonicalID   string
	CanonicalName string
	EntityType    string
}

// Ontology is the catalog lookup surface. Lookup returns nil (not an error)
// on a miss.
type Ontology interface {
	Lookup(ctx context.Context, tenantID uuid.UUID, normalized, typeHint string) (*OntologyHit, error)
}

// Store is the consolidation surface promotion writes through.
// GetCanonicalByKey is keyed by the canonical dedup key (normalized
// canonical name).
type Store interface {
	GetCanonicalByKey(ctx context.Context, tenantID uuid.UUID, key string) (*types.GlobalEntity, error)
	CreateCanonical(ctx context.Context, row *types.GlobalEntity) (*types.GlobalEntity, error)
	// AppendPromotion links proto to canonical (PROMOTED_TO, 1:1), unions
	// the proto's chunk ids into the canonical's (order-preserving, no
	// duplicates), appends the document id, and bumps support by one.
	AppendPromotion(ctx context.Context, canonicalID uuid.UUID, proto *types.MaterialEntity) error
}

// Result is the outcome of resolving one surface form.
type Result struct {
	CanonicalID      string   `json:"canonical_id,omitempty"`
	CanonicalName    string   `json:"canonical_name"`
	Confidence       float64  `json:"confidence"`
	Reasoning        string   `json:"reasoning,omitempty"`
	Aliases          []string `json:"aliases,omitempty"`
	ConceptType      string   `json:"concept_type,omitempty"`
	Domain           string   `json:"domain,omitempty"`
	AmbiguityWarning bool     `json:"ambiguity_warning,omitempty"`
	PossibleMatches  []string `json:"possible_matches,omitempty"`
	IsCataloged      bool     `json:"is_cataloged"`
	Method           string   `json:"method"`
}

// Item is one entry of a batch resolution request.
type Item struct {
	RawName    string
	TypeHint   string
	Context    string
	DomainHint string
}

type Canonicalizer struct {
	log      *logger.Logger
	ontology Ontology
	llm      llm.Client
	store    Store
	locker   lock.Locker
	breaker  *circuitBreaker
}

// Config bounds the breaker; zero values take the spec defaults
// (5 consecutive failures, 60 s recovery).
type Config struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
}

func New(log *logger.Logger, ontology Ontology, llmClient llm.Client, store Store, locker lock.Locker, cfg Config) (*Canonicalizer, error) {
	if log == nil {
		return nil, fmt.Errorf("canonical: logger required")
	}
	if ontology == nil {
		return nil, fmt.Errorf("canonical: ontology required")
	}
	if store == nil {
		return nil, fmt.Errorf("canonical: store required")
	}
	return &Canonicalizer{
		log:      log.With("component", "Canonicalizer"),
		ontology: ontology,
		llm:      llmClient,
		store:    store,
		locker:   locker,
		breaker:  newCircuitBreaker(cfg.FailureThreshold, cfg.RecoveryTimeout),
	}, nil
}

// NormalizeSurface is the canonical dedup key function: lowercased, trimmed.
func NormalizeSurface(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Resolve runs the per-item resolution pipeline for one surface form.
func (c *Canonicalizer) Resolve(ctx context.Context, tenantID uuid.UUID, item Item) (Result, error) {
	normalized := NormalizeSurface(item.RawName)
	if normalized == "" {
		return Result{}, fmt.Errorf("canonical: empty surface form: %w", pkgerrors.ErrInvalidArgument)
	}

	hit, err := c.ontology.Lookup(ctx, tenantID, normalized, item.TypeHint)
	if err != nil {
		return Result{}, fmt.Errorf("canonical: ontology lookup: %w", err)
	}
	if hit == nil && item.TypeHint != "" {
		// Retry without the type filter; the ontology's own type wins over
		// any hint the extractor guessed.
		hit, err = c.ontology.Lookup(ctx, tenantID, normalized, "")
		if err != nil {
			return Result{}, fmt.Errorf("canonical: ontology lookup (untyped): %w", err)
		}
	}
	if hit != nil {
		return Result{
			CanonicalID:   hit.CanonicalID,
			CanonicalName: hit.CanonicalName,
			ConceptType:   hit.EntityType,
			Confidence:    1.0,
			IsCataloged:   true,
			Method:        MethodOntology,
		}, nil
	}

	res, ok := c.resolveViaLLM(ctx, item)
	if ok {
		return res, nil
	}
	return fallbackResult(item.RawName), nil
}

// ResolveBatch resolves N items and returns N results in the same order.
// A structural failure of the batch call (wrong count, malformed JSON)
// falls back per-item -- results are never silently reordered.
func (c *Canonicalizer) ResolveBatch(ctx context.Context, tenantID uuid.UUID, items []Item) ([]Result, error) {
	results := make([]Result, len(items))
	var uncataloged []int

	for i, item := range items {
		normalized := NormalizeSurface(item.RawName)
		if normalized == "" {
			results[i] = fallbackResult(item.RawName)
			continue
		}
		hit, err := c.ontology.Lookup(ctx, tenantID, normalized, item.TypeHint)
		if err != nil {
			return nil, fmt.Errorf("canonical: ontology lookup: %w", err)
		}
		if hit == nil && item.TypeHint != "" {
			hit, err = c.ontology.Lookup(ctx, tenantID, normalized, "")
			if err != nil {
				return nil, fmt.Errorf("canonical: ontology lookup (untyped): %w", err)
			}
		}
		if hit != nil {
			results[i] = Result{
				CanonicalID:   hit.CanonicalID,
				CanonicalName: hit.CanonicalName,
				ConceptType:   hit.EntityType,
				Confidence:    1.0,
				IsCataloged:   true,
				Method:        MethodOntology,
			}
			continue
		}
		uncataloged = append(uncataloged, i)
	}

	if len(uncataloged) == 0 {
		return results, nil
	}

	batch := make([]Item, 0, len(uncataloged))
	for _, idx := range uncataloged {
		batch = append(batch, items[idx])
	}
	llmResults, ok := c.resolveBatchViaLLM(ctx, batch)
	if ok && len(llmResults) == len(batch) {
		for j, idx := range uncataloged {
			results[idx] = llmResults[j]
		}
		return results, nil
	}

	// Batch path failed structurally: per-item fallback, never reorder.
	for _, idx := range uncataloged {
		res, itemOK := c.resolveViaLLM(ctx, items[idx])
		if !itemOK {
			res = fallbackResult(items[idx].RawName)
		}
		results[idx] = res
	}
	return results, nil
}

// Promote writes the resolved canonical for proto, deduplicating across
// workers. The lock is keyed by (tenant, canonical name); when the lock is
// unavailable the write degrades to read-after-write with a logged
// duplication risk rather than failing the document.
func (c *Canonicalizer) Promote(ctx context.Context, tenantID uuid.UUID, proto *types.MaterialEntity, res Result) (*types.GlobalEntity, error) {
	if proto == nil {
		return nil, fmt.Errorf("canonical: nil proto: %w", pkgerrors.ErrInvalidArgument)
	}
	key := NormalizeSurface(res.CanonicalName)
	if key == "" {
		return nil, fmt.Errorf("canonical: empty canonical name: %w", pkgerrors.ErrInvalidArgument)
	}

	if c.locker != nil {
		release, err := c.locker.Acquire(ctx, fmt.Sprintf("canonical:%s:%s", tenantID, key), lockTTL)
		switch {
		case err == nil:
			defer release(ctx)
		case errors.Is(err, pkgerrors.ErrLockUnavailable):
			// Another worker holds the lock: re-read, and if the canonical
			// now exists just link to it.
			existing, readErr := c.store.GetCanonicalByKey(ctx, tenantID, key)
			if readErr != nil {
				return nil, fmt.Errorf("canonical: re-read under contention: %w", readErr)
			}
			if existing != nil {
				if linkErr := c.store.AppendPromotion(ctx, existing.ID, proto); linkErr != nil {
					return nil, linkErr
				}
				return existing, nil
			}
			c.log.Warn("lock contended and canonical absent, proceeding unlocked", "tenant_id", tenantID, "key", key)
		default:
			c.log.Warn("lock service unavailable, duplication risk", "tenant_id", tenantID, "key", key, "error", err)
		}
	} else {
		c.log.Warn("no locker configured, duplication risk", "tenant_id", tenantID, "key", key)
	}

	existing, err := c.store.GetCanonicalByKey(ctx, tenantID, key)
	if err != nil {
		return nil, fmt.Errorf("canonical: read canonical: %w", err)
	}
	if existing == nil {
		trace, _ := json.Marshal(res)
		row := &types.GlobalEntity{
			ID:            uuid.New(),
			TenantID:      tenantID,
			Key:           key,
			CanonicalName: res.CanonicalName,
			SurfaceForm:   proto.ConceptName,
			ConceptType:   conceptTypeOrUnknown(res.ConceptType),
			QualityScore:  res.Confidence,
			DecisionTrace: trace,
		}
		created, createErr := c.store.CreateCanonical(ctx, row)
		if createErr != nil {
			// Unique-violation race: a concurrent worker created it first.
			existing, err = c.store.GetCanonicalByKey(ctx, tenantID, key)
			if err != nil || existing == nil {
				return nil, fmt.Errorf("canonical: create canonical: %w", createErr)
			}
		} else {
			existing = created
		}
	}

	if err := c.store.AppendPromotion(ctx, existing.ID, proto); err != nil {
		return nil, err
	}
	return existing, nil
}

func conceptTypeOrUnknown(t string) string {
	if strings.TrimSpace(t) == "" {
		return "unknown"
	}
	return t
}

// TruncateContext shortens the supporting context to at most max chars,
// cutting on a word boundary so the model never sees a torn word.
func TruncateContext(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 {
		max = maxContextChars
	}
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if idx := strings.LastIndexAny(cut, " \t\n"); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}

// fallbackResult is the degraded path when the LLM is unreachable or its
// output unusable: title-case the raw name at confidence 0.5 and flag the
// ambiguity so downstream consumers can treat it with suspicion.
func fallbackResult(rawName string) Result {
	return Result{
		CanonicalName:    titleCase(rawName),
		Confidence:       0.5,
		AmbiguityWarning: true,
		Method:           MethodFallback,
	}
}

func titleCase(s string) string {
	words := strings.Fields(strings.TrimSpace(s))
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 {
			r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

var canonicalizationSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"canonical_name":    map[string]any{"type": "string"},
		"confidence":        map[string]any{"type": "number"},
		"reasoning":         map[string]any{"type": "string"},
		"aliases":           map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"concept_type":      map[string]any{"type": "string"},
		"domain":            map[string]any{"type": "string"},
		"ambiguity_warning": map[string]any{"type": "boolean"},
		"possible_matches":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	"required": []string{"canonical_name", "confidence"},
}

var batchSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"results": map[string]any{
			"type":  "array",
			"items": canonicalizationSchema,
		},
	},
	"required": []string{"results"},
}

func (c *Canonicalizer) resolveViaLLM(ctx context.Context, item Item) (Result, bool) {
	if c.llm == nil {
		return Result{}, false
	}
	if err := c.breaker.Allow(); err != nil {
		c.log.Warn("canonicalization circuit open, using fallback", "raw_name", item.RawName)
		return Result{}, false
	}

	prompt := buildSinglePrompt(item)
	raw, err := c.llm.GenerateJSON(ctx, prompt, "canonicalization_result", canonicalizationSchema)
	if err != nil {
		c.breaker.RecordFailure()
		c.log.Warn("canonicalization llm call failed", "raw_name", item.RawName, "error", err)
		return Result{}, false
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil || strings.TrimSpace(res.CanonicalName) == "" {
		c.breaker.RecordFailure()
		c.log.Warn("canonicalization llm output unusable", "raw_name", item.RawName, "error", err)
		return Result{}, false
	}
	c.breaker.RecordSuccess()
	res.Method = MethodLLM
	return res, true
}

func (c *Canonicalizer) resolveBatchViaLLM(ctx context.Context, items []Item) ([]Result, bool) {
	if c.llm == nil || len(items) == 0 {
		return nil, false
	}
	if err := c.breaker.Allow(); err != nil {
		return nil, false
	}

	prompt := buildBatchPrompt(items)
	raw, err := c.llm.GenerateJSON(ctx, prompt, "canonicalization_batch", batchSchema)
	if err != nil {
		c.breaker.RecordFailure()
		c.log.Warn("batch canonicalization llm call failed", "count", len(items), "error", err)
		return nil, false
	}
	var parsed struct {
		Results []Result `json:"results"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		c.breaker.RecordFailure()
		c.log.Warn("batch canonicalization output malformed", "error", err)
		return nil, false
	}
	if len(parsed.Results) != len(items) {
		c.breaker.RecordFailure()
		c.log.Warn("batch canonicalization count mismatch", "want", len(items), "got", len(parsed.Results))
		return nil, false
	}
	c.breaker.RecordSuccess()
	for i := range parsed.Results {
		parsed.Results[i].Method = MethodLLM
	}
	return parsed.Results, true
}

func buildSinglePrompt(item Item) string {
	var b strings.Builder
	b.WriteString("Resolve the following raw concept name to its canonical form.\n")
	fmt.Fprintf(&b, "Raw name: %s\n", item.RawName)
	if ctx := TruncateContext(item.Context, maxContextChars); ctx != "" {
		fmt.Fprintf(&b, "Context: %s\n", ctx)
	}
	if item.DomainHint != "" {
		fmt.Fprintf(&b, "Domain hint: %s\n", item.DomainHint)
	}
	b.WriteString("Return canonical_name, confidence in [0,1], reasoning, aliases, concept_type, and set ambiguity_warning when the name could refer to more than one thing.")
	return b.String()
}

func buildBatchPrompt(items []Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Resolve the following %d raw concept names to canonical forms.\n", len(items))
	b.WriteString("Return results in the SAME ORDER as the inputs, with the EXACT COUNT of inputs. Do not merge, drop, or reorder entries.\n\n")
	for i, item := range items {
		fmt.Fprintf(&b, "%d. raw_name: %s", i+1, item.RawName)
		if ctx := TruncateContext(item.Context, maxContextChars); ctx != "" {
			fmt.Fprintf(&b, " | context: %s", ctx)
		}
		if item.DomainHint != "" {
			fmt.Fprintf(&b, " | domain: %s", item.DomainHint)
		}
		b.WriteString("\n")
	}
	return b.String()
}
