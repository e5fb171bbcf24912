package topic

import (
	"sort"
	"strings"
)

const (
	defaultSalienceThreshold = 0.25
	defaultTopK              = 15

	// CoversMethod tags every edge with the salience normalization that
	// produced it, so a future recomputation pass can tell edges apart
	// without guessing.
	CoversMethod  = "doc_local_max"
	CoversVersion = 1
)

// stopConcepts is the closed list of generic tokens never worth a COVERS
// edge regardless of salience.
var stopConcepts = map[string]struct{}{
	"introduction": {}, "overview": {}, "summary": {}, "conclusion": {},
	"agenda": {}, "notes": {}, "example": {}, "examples": {},
	"table": {}, "figure": {}, "page": {}, "chapter": {}, "section": {},
	"data": {}, "system": {}, "process": {}, "information": {},
}

// MentionCount is the snapshot input: how often a concept is mentioned in
// the document scope of one topic.
type MentionCount struct {
	ConceptKey string
	ConceptID  string
	Count      int
}

// CoversEdge is one deterministic Topic-to-Concept coverage edge. It is a
// documentary scope statement only: two concepts covered by the same topic
// are not thereby related to each other.
type CoversEdge struct {
	TopicID      string
	ConceptKey   string
	ConceptID    string
	Salience     float64
	MentionCount int
	Method       string
	Version      int
}

// CoversOptions tunes the builder; zero values take the defaults
// (threshold 0.25, top-K 15, built-in stop list).
type CoversOptions struct {
	SalienceThreshold float64
	TopK              int
	StopConcepts      map[string]struct{}
}

func (o CoversOptions) withDefaults() CoversOptions {
	if o.SalienceThreshold <= 0 {
		o.SalienceThreshold = defaultSalienceThreshold
	}
	if o.TopK <= 0 {
		o.TopK = defaultTopK
	}
	if o.StopConcepts == nil {
		o.StopConcepts = stopConcepts
	}
	return o
}

// BuildCovers computes the COVERS edges for one topic from a snapshot of
// mention counts. The result is a pure function of (counts, threshold,
// top-K, stop list): rebuilding from the same snapshot yields identical
// edges in identical order.
func BuildCovers(topicID string, counts []MentionCount, docMaxCount int, opts CoversOptions) []CoversEdge {
	opts = opts.withDefaults()
	if topicID == "" || len(counts) == 0 {
		return nil
	}
	if docMaxCount <= 0 {
		for _, c := range counts {
			if c.Count > docMaxCount {
				docMaxCount = c.Count
			}
		}
		if docMaxCount <= 0 {
			return nil
		}
	}

	var edges []CoversEdge
	for _, c := range counts {
		if c.Count <= 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(c.ConceptKey))
		if _, stop := opts.StopConcepts[key]; stop {
			continue
		}
		salience := float64(c.Count) / float64(docMaxCount)
		if salience < opts.SalienceThreshold {
			continue
		}
		edges = append(edges, CoversEdge{
			TopicID:      topicID,
			ConceptKey:   c.ConceptKey,
			ConceptID:    c.ConceptID,
			Salience:     salience,
			MentionCount: c.Count,
			Method:       CoversMethod,
			Version:      CoversVersion,
		})
	}

	// Deterministic order: salience descending, concept key ascending on
	// ties, so top-K truncation never depends on input order.
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].Salience != edges[j].Salience {
			return edges[i].Salience > edges[j].Salience
		}
		return edges[i].ConceptKey < edges[j].ConceptKey
	})
	if len(edges) > opts.TopK {
		edges = edges[:opts.TopK]
	}
	return edges
}

// MergeCovers folds a rebuilt edge into an existing one: salience merges
// by max, mention counts accumulate. Method/version come from the newer
// write so recomputation provenance stays current.
func MergeCovers(existing, incoming CoversEdge) CoversEdge {
	out := incoming
	if existing.Salience > out.Salience {
		out.Salience = existing.Salience
	}
	out.MentionCount = existing.MentionCount + incoming.MentionCount
	return out
}
