// Package vectorstore defines the outbound vector-store contract consumed by
// the ingestion and canonicalization subsystems. The core never embeds
// vectors itself (embedding model hosting is an external collaborator); it
// only upserts/queries through this interface, keyed by chunk_id so writes
// are idempotent.
package vectorstore

import "context"

// Vector is a single point written to the store. Metadata stays within a
// stable payload subset (text, language, document locator, chunk locator,
// related_node_ids, related_facts, sys.tags_tech) -- the core never writes
// embedding bytes or anchor metadata beyond that subset.
type Vector struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// Match is a similarity result: an ID plus its score (higher is better).
type Match struct {
	ID    string
	Score float64
}

// Store is the contract every vector backend (Qdrant, Pinecone, ...) must
// satisfy. Upsert is idempotent on Vector.ID so re-ingesting a document or
// recomputing chunks never creates duplicate points.
type Store interface {
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
	QueryMatches(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]Match, error)
	QueryIDs(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]string, error)
	DeleteIDs(ctx context.Context, namespace string, ids []string) error
}
