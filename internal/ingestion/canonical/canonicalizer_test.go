package canonical

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/llm"
	"github.com/yungbote/neurobridge-backend/internal/lock"
	pkgerrors "github.com/yungbote/neurobridge-backend/internal/pkg/errors"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

type fakeOntology struct {
	entries map[string]OntologyHit // key: normalized + "|" + type
}

func (f *fakeOntology) Lookup(_ context.Context, _ uuid.UUID, normalized, typeHint string) (*OntologyHit, error) {
	if hit, ok := f.entries[normalized+"|"+typeHint]; ok {
		return &hit, nil
	}
	if typeHint == "" {
		for k, hit := range f.entries {
			if len(k) > len(normalized) && k[:len(normalized)+1] == normalized+"|" {
				h := hit
				return &h, nil
			}
		}
	}
	return nil, nil
}

type fakeLLM struct {
	mu     sync.Mutex
	calls  int
	reply  func(prompt string) (json.RawMessage, error)
}

func (f *fakeLLM) GenerateJSON(_ context.Context, prompt, _ string, _ map[string]any) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.reply(prompt)
}

type fakeStore struct {
	mu         sync.Mutex
	byKey      map[string]*types.GlobalEntity
	promotions map[uuid.UUID][]uuid.UUID // canonical -> protos
	chunkIDs   map[uuid.UUID][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byKey:      map[string]*types.GlobalEntity{},
		promotions: map[uuid.UUID][]uuid.UUID{},
		chunkIDs:   map[uuid.UUID][]string{},
	}
}

func (f *fakeStore) GetCanonicalByKey(_ context.Context, tenantID uuid.UUID, key string) (*types.GlobalEntity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.byKey[tenantID.String()+"|"+key]; ok {
		return row, nil
	}
	return nil, nil
}

func (f *fakeStore) CreateCanonical(_ context.Context, row *types.GlobalEntity) (*types.GlobalEntity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := row.TenantID.String() + "|" + row.Key
	if _, ok := f.byKey[k]; ok {
		return nil, fmt.Errorf("duplicate key %s", k)
	}
	f.byKey[k] = row
	return row, nil
}

func (f *fakeStore) AppendPromotion(_ context.Context, canonicalID uuid.UUID, proto *types.MaterialEntity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.promotions[canonicalID] = append(f.promotions[canonicalID], proto.ID)
	var ids []string
	_ = json.Unmarshal(proto.ChunkIDs, &ids)
	seen := map[string]struct{}{}
	for _, id := range f.chunkIDs[canonicalID] {
		seen[id] = struct{}{}
	}
	for _, id := range ids {
		if _, dup := seen[id]; !dup {
			f.chunkIDs[canonicalID] = append(f.chunkIDs[canonicalID], id)
			seen[id] = struct{}{}
		}
	}
	return nil
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
	err  error
}

func (f *fakeLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(context.Context), error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held == nil {
		f.held = map[string]bool{}
	}
	if f.held[key] {
		return nil, pkgerrors.ErrLockUnavailable
	}
	f.held[key] = true
	return func(context.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.held, key)
	}, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func newTestCanonicalizer(t *testing.T, ontology Ontology, llmClient *fakeLLM, store Store, locker *fakeLocker) *Canonicalizer {
	t.Helper()
	var lc llm.Client
	if llmClient != nil {
		lc = llmClient
	}
	var lk lock.Locker
	if locker != nil {
		lk = locker
	}
	c, err := New(testLogger(t), ontology, lc, store, lk, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestResolveOntologyHitWinsOverLLM(t *testing.T) {
	tenantID := uuid.New()
	ontology := &fakeOntology{entries: map[string]OntologyHit{
		"s/4hana cloud|product": {CanonicalID: "ent-1", CanonicalName: "SAP S/4HANA Cloud", EntityType: "product"},
	}}
	llmClient := &fakeLLM{reply: func(string) (json.RawMessage, error) {
		t.Fatal("llm must not be called on catalog hit")
		return nil, nil
	}}
	c := newTestCanonicalizer(t, ontology, llmClient, newFakeStore(), nil)

	res, err := c.Resolve(context.Background(), tenantID, Item{RawName: "  S/4HANA Cloud ", TypeHint: "product"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.IsCataloged || res.CanonicalName != "SAP S/4HANA Cloud" || res.Method != MethodOntology {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestResolveTypeHintRetryPrefersOntologyType(t *testing.T) {
	tenantID := uuid.New()
	ontology := &fakeOntology{entries: map[string]OntologyHit{
		"kubernetes|platform": {CanonicalID: "ent-2", CanonicalName: "Kubernetes", EntityType: "platform"},
	}}
	c := newTestCanonicalizer(t, ontology, nil, newFakeStore(), nil)

	// The hint "tool" misses; retry without the filter must hit and the
	// ontology's own type must win.
	res, err := c.Resolve(context.Background(), tenantID, Item{RawName: "Kubernetes", TypeHint: "tool"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.IsCataloged || res.ConceptType != "platform" {
		t.Fatalf("want ontology type to override hint, got %+v", res)
	}
}

func TestResolveLLMFallbackAndDegradedPath(t *testing.T) {
	tenantID := uuid.New()
	ontology := &fakeOntology{entries: map[string]OntologyHit{}}

	llmClient := &fakeLLM{reply: func(string) (json.RawMessage, error) {
		return json.RawMessage(`{"canonical_name":"Zero Downtime Upgrade","confidence":0.92,"concept_type":"capability"}`), nil
	}}
	c := newTestCanonicalizer(t, ontology, llmClient, newFakeStore(), nil)
	res, err := c.Resolve(context.Background(), tenantID, Item{RawName: "zero-downtime upgrades"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Method != MethodLLM || res.CanonicalName != "Zero Downtime Upgrade" {
		t.Fatalf("unexpected llm result: %+v", res)
	}

	// No LLM at all: deterministic title-case fallback at confidence 0.5.
	c2 := newTestCanonicalizer(t, ontology, nil, newFakeStore(), nil)
	res, err = c2.Resolve(context.Background(), tenantID, Item{RawName: "zero-downtime upgrades"})
	if err != nil {
		t.Fatalf("Resolve fallback: %v", err)
	}
	if res.Method != MethodFallback || res.Confidence != 0.5 || !res.AmbiguityWarning {
		t.Fatalf("unexpected fallback result: %+v", res)
	}
	if res.CanonicalName != "Zero-downtime Upgrades" {
		t.Fatalf("title case: got %q", res.CanonicalName)
	}
}

func TestResolveBatchCountMismatchFallsBackPerItem(t *testing.T) {
	tenantID := uuid.New()
	ontology := &fakeOntology{entries: map[string]OntologyHit{}}

	call := 0
	llmClient := &fakeLLM{reply: func(string) (json.RawMessage, error) {
		call++
		if call == 1 {
			// Batch reply with the wrong count: must not be accepted.
			return json.RawMessage(`{"results":[{"canonical_name":"Only One","confidence":0.9}]}`), nil
		}
		return json.RawMessage(fmt.Sprintf(`{"canonical_name":"Item %d","confidence":0.8}`, call)), nil
	}}
	c := newTestCanonicalizer(t, ontology, llmClient, newFakeStore(), nil)

	items := []Item{{RawName: "first thing"}, {RawName: "second thing"}}
	results, err := c.ResolveBatch(context.Background(), tenantID, items)
	if err != nil {
		t.Fatalf("ResolveBatch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("want 2 results, got %d", len(results))
	}
	for i, r := range results {
		if r.CanonicalName == "Only One" {
			t.Fatalf("result %d accepted a mismatched batch reply: %+v", i, r)
		}
	}
}

func TestResolveBatchPreservesOrder(t *testing.T) {
	tenantID := uuid.New()
	ontology := &fakeOntology{entries: map[string]OntologyHit{
		"cataloged thing|": {CanonicalID: "ent-9", CanonicalName: "Cataloged Thing", EntityType: "product"},
	}}
	llmClient := &fakeLLM{reply: func(string) (json.RawMessage, error) {
		return json.RawMessage(`{"results":[{"canonical_name":"New Thing","confidence":0.9}]}`), nil
	}}
	c := newTestCanonicalizer(t, ontology, llmClient, newFakeStore(), nil)

	results, err := c.ResolveBatch(context.Background(), tenantID, []Item{
		{RawName: "new thing"},
		{RawName: "Cataloged Thing"},
	})
	if err != nil {
		t.Fatalf("ResolveBatch: %v", err)
	}
	if results[0].CanonicalName != "New Thing" || results[1].CanonicalName != "Cataloged Thing" {
		t.Fatalf("order not preserved: %+v", results)
	}
	if !results[1].IsCataloged {
		t.Fatalf("cataloged item lost its catalog flag: %+v", results[1])
	}
}

func TestPromoteDeduplicatesAcrossWorkers(t *testing.T) {
	tenantID := uuid.New()
	store := newFakeStore()
	locker := &fakeLocker{}
	c := newTestCanonicalizer(t, &fakeOntology{entries: map[string]OntologyHit{}}, nil, store, locker)

	res := Result{CanonicalName: "SAP S/4HANA Cloud", Confidence: 0.9, ConceptType: "product"}
	protoA := &types.MaterialEntity{ID: uuid.New(), TenantID: tenantID, ConceptName: "S/4HANA Cloud's", ChunkIDs: datatypes.JSON(`["c1","c2"]`)}
	protoB := &types.MaterialEntity{ID: uuid.New(), TenantID: tenantID, ConceptName: "SAP S/4HANA Cloud", ChunkIDs: datatypes.JSON(`["c2","c3"]`)}

	var wg sync.WaitGroup
	out := make([]*types.GlobalEntity, 2)
	errs := make([]error, 2)
	for i, proto := range []*types.MaterialEntity{protoA, protoB} {
		wg.Add(1)
		go func(i int, p *types.MaterialEntity) {
			defer wg.Done()
			out[i], errs[i] = c.Promote(context.Background(), tenantID, p, res)
		}(i, proto)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Promote %d: %v", i, err)
		}
	}
	if out[0].ID != out[1].ID {
		t.Fatalf("two canonicals created: %s vs %s", out[0].ID, out[1].ID)
	}
	if got := len(store.promotions[out[0].ID]); got != 2 {
		t.Fatalf("want both protos promoted, got %d", got)
	}
	chunks := store.chunkIDs[out[0].ID]
	if len(chunks) != 3 {
		t.Fatalf("chunk ids not a deduplicated union: %v", chunks)
	}
}

func TestPromoteProceedsWithoutLockService(t *testing.T) {
	tenantID := uuid.New()
	store := newFakeStore()
	locker := &fakeLocker{err: fmt.Errorf("redis down")}
	c := newTestCanonicalizer(t, &fakeOntology{entries: map[string]OntologyHit{}}, nil, store, locker)

	proto := &types.MaterialEntity{ID: uuid.New(), TenantID: tenantID, ConceptName: "thing", ChunkIDs: datatypes.JSON(`["c1"]`)}
	got, err := c.Promote(context.Background(), tenantID, proto, Result{CanonicalName: "Thing", Confidence: 0.5})
	if err != nil || got == nil {
		t.Fatalf("Promote under lock loss: got=%v err=%v", got, err)
	}
}

func TestCircuitOpensAfterRepeatedLLMFailures(t *testing.T) {
	tenantID := uuid.New()
	llmClient := &fakeLLM{reply: func(string) (json.RawMessage, error) {
		return nil, fmt.Errorf("upstream 500")
	}}
	c := newTestCanonicalizer(t, &fakeOntology{entries: map[string]OntologyHit{}}, llmClient, newFakeStore(), nil)

	for i := 0; i < 6; i++ {
		res, err := c.Resolve(context.Background(), tenantID, Item{RawName: fmt.Sprintf("thing %d", i)})
		if err != nil {
			t.Fatalf("Resolve %d: %v", i, err)
		}
		if res.Method != MethodFallback {
			t.Fatalf("want fallback while llm failing, got %+v", res)
		}
	}
	// Breaker opened after 5 consecutive failures: the 6th resolve must not
	// have reached the LLM.
	if llmClient.calls != 5 {
		t.Fatalf("want 5 llm calls before circuit opened, got %d", llmClient.calls)
	}
}

func TestTruncateContextWordBoundary(t *testing.T) {
	in := "alpha beta gamma delta"
	out := TruncateContext(in, 12)
	if out != "alpha beta" {
		t.Fatalf("got %q", out)
	}
	if TruncateContext("short", 500) != "short" {
		t.Fatal("short context must pass through")
	}
}
