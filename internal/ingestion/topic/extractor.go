// Package topic extracts structural topics from a document's section tree
// (or header patterns when no tree exists) and builds the deterministic
// COVERS edges from topics to the concepts mentioned under them. A topic is
// a section identity, not a concept relation; COVERS means documentary
// scope and nothing more.
package topic

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

const (
	defaultMaxTopics = 30
	defaultMaxLevel  = 2
)

// Topic is one extracted structural topic. ID is a stable function of
// (docID, level, normalized title), so concurrent emitters converge on the
// same node.
type Topic struct {
	ID              string
	DocID           string
	Level           int
	Title           string
	NormalizedTitle string
	SectionPath     string
	ParentID        string
}

// SectionInput is one node of the parsed section tree.
type SectionInput struct {
	Title string
	Level int
	Path  string
}

// Options caps topic explosion. Zero values take the defaults
// (max_topics=30, max_level=2).
type Options struct {
	MaxTopics int
	MaxLevel  int
}

func (o Options) withDefaults() Options {
	if o.MaxTopics <= 0 {
		o.MaxTopics = defaultMaxTopics
	}
	if o.MaxLevel <= 0 {
		o.MaxLevel = defaultMaxLevel
	}
	return o
}

var (
	leadingNumbering = regexp.MustCompile(`^\s*(\d+(\.\d+)*\.?|\#+)\s*`)
	punctuation      = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	mdHeader         = regexp.MustCompile(`(?m)^(#{1,2})\s+(.+)$`)
	numberedHeader   = regexp.MustCompile(`(?m)^\s*(\d+(?:\.\d+)?)\.?\s+([A-Z][^\n]{2,80})$`)
)

// stop-words filtered from normalized titles, deliberately small and
// language-agnostic.
var titleStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "and": {}, "or": {},
	"to": {}, "in": {}, "for": {}, "on": {}, "with": {},
	"der": {}, "die": {}, "das": {}, "und": {}, "le": {}, "la": {}, "de": {},
}

// NormalizeTitle lowercases, strips leading numbering, removes
// punctuation, filters stop-words, and collapses whitespace. Two titles
// with equal normalizations are the same topic.
func NormalizeTitle(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = leadingNumbering.ReplaceAllString(s, "")
	s = punctuation.ReplaceAllString(s, " ")
	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if _, stop := titleStopWords[w]; stop {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// TopicID derives the stable topic identity. Equal normalized titles at
// the same level of the same document always hash to the same id.
func TopicID(docID string, level int, normalizedTitle string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%s", docID, level, normalizedTitle)))
	return fmt.Sprintf("topic:%s:%d:%s", docID, level, hex.EncodeToString(h[:8]))
}

// Extract builds the topic list for a document. Explicit section structure
// is preferred; header patterns are the fallback; a document with neither
// gets a single synthetic root topic.
func Extract(docID, docTitle string, sections []SectionInput, text string, opts Options) []Topic {
	opts = opts.withDefaults()

	var inputs []SectionInput
	if len(sections) > 0 {
		inputs = sections
	} else {
		inputs = headerSections(text)
	}

	var topics []Topic
	seen := map[string]struct{}{}
	var lastAtLevel [3]string // parent tracking by level

	for _, in := range inputs {
		if in.Level > opts.MaxLevel {
			continue
		}
		normalized := NormalizeTitle(in.Title)
		if normalized == "" {
			continue
		}
		key := fmt.Sprintf("%d:%s", in.Level, normalized)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		id := TopicID(docID, in.Level, normalized)
		parent := ""
		if in.Level > 0 && in.Level <= 2 {
			parent = lastAtLevel[in.Level-1]
		}
		topics = append(topics, Topic{
			ID:              id,
			DocID:           docID,
			Level:           in.Level,
			Title:           strings.TrimSpace(in.Title),
			NormalizedTitle: normalized,
			SectionPath:     in.Path,
			ParentID:        parent,
		})
		if in.Level >= 0 && in.Level <= 2 {
			lastAtLevel[in.Level] = id
		}
		if len(topics) >= opts.MaxTopics {
			break
		}
	}

	if len(topics) == 0 {
		title := docTitle
		if strings.TrimSpace(title) == "" {
			title = "document"
		}
		normalized := NormalizeTitle(title)
		if normalized == "" {
			normalized = "document"
		}
		topics = append(topics, Topic{
			ID:              TopicID(docID, 0, normalized),
			DocID:           docID,
			Level:           0,
			Title:           strings.TrimSpace(title),
			NormalizedTitle: normalized,
		})
	}
	return topics
}

// headerSections scans raw text for markdown and numbered headers when no
// parsed section tree is available.
func headerSections(text string) []SectionInput {
	type hit struct {
		offset int
		in     SectionInput
	}
	var hits []hit
	for _, m := range mdHeader.FindAllStringSubmatchIndex(text, -1) {
		hashes := text[m[2]:m[3]]
		title := text[m[4]:m[5]]
		hits = append(hits, hit{offset: m[0], in: SectionInput{Title: title, Level: len(hashes)}})
	}
	for _, m := range numberedHeader.FindAllStringSubmatchIndex(text, -1) {
		numbering := text[m[2]:m[3]]
		title := text[m[4]:m[5]]
		level := 1
		if strings.Contains(numbering, ".") {
			level = 2
		}
		hits = append(hits, hit{offset: m[0], in: SectionInput{Title: title, Level: level}})
	}
	// Preserve reading order across both pattern families.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j-1].offset > hits[j].offset; j-- {
			hits[j-1], hits[j] = hits[j], hits[j-1]
		}
	}
	out := make([]SectionInput, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.in)
	}
	return out
}
