// Package temporal answers applicability questions over claims
// parameterized by an axis (release, edition, ...). An axis earns timeline
// queries only after validation -- at least two distinct documents and two
// distinct values -- and an ordering is only ever reported when it can be
// inferred, never guessed.
package temporal

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ClaimAtContext is one claim observed under one axis value.
type ClaimAtContext struct {
	ClaimID string
	DocID   string
	Context string // the axis value, e.g. "2402"
	Text    string
}

// Validation is the outcome of checking whether an axis is real enough to
// parameterize queries.
type Validation struct {
	Validated      bool
	DistinctDocs   int
	DistinctValues int
}

// Validate applies the axis test: >=2 distinct documents and >=2 distinct
// values. A dimension seen in one document, or with one value, is a
// candidate, not an axis.
func Validate(claims []ClaimAtContext) Validation {
	docs := map[string]struct{}{}
	values := map[string]struct{}{}
	for _, c := range claims {
		if c.DocID != "" {
			docs[c.DocID] = struct{}{}
		}
		if c.Context != "" {
			values[c.Context] = struct{}{}
		}
	}
	v := Validation{DistinctDocs: len(docs), DistinctValues: len(values)}
	v.Validated = v.DistinctDocs >= 2 && v.DistinctValues >= 2
	return v
}

// OrderingConfidence says whether the axis values could be put in order.
type OrderingConfidence string

const (
	OrderingInferred OrderingConfidence = "INFERRED"
	OrderingUnknown  OrderingConfidence = "UNKNOWN"
)

// Ordering is the inferred sequence of axis values, oldest first. With
// Confidence UNKNOWN the Contexts field still lists the values, unordered.
type Ordering struct {
	Contexts   []string
	Confidence OrderingConfidence
}

var numericish = regexp.MustCompile(`^v?(\d+)(?:[.\-](\d+))?(?:[.\-](\d+))?$`)

// InferOrdering orders axis values when every value parses as a numeric or
// dotted-numeric marker (2311, 2402, v2.1). Any unparseable value makes
// the whole ordering UNKNOWN: a partially guessed order is worse than none.
func InferOrdering(contexts []string) Ordering {
	uniq := map[string]struct{}{}
	var values []string
	for _, c := range contexts {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, dup := uniq[c]; dup {
			continue
		}
		uniq[c] = struct{}{}
		values = append(values, c)
	}

	type keyed struct {
		raw  string
		nums [3]int
	}
	parsed := make([]keyed, 0, len(values))
	for _, v := range values {
		m := numericish.FindStringSubmatch(strings.ToLower(v))
		if m == nil {
			sort.Strings(values)
			return Ordering{Contexts: values, Confidence: OrderingUnknown}
		}
		var k keyed
		k.raw = v
		for i := 0; i < 3; i++ {
			if m[i+1] != "" {
				k.nums[i], _ = strconv.Atoi(m[i+1])
			}
		}
		parsed = append(parsed, k)
	}
	sort.SliceStable(parsed, func(i, j int) bool {
		for n := 0; n < 3; n++ {
			if parsed[i].nums[n] != parsed[j].nums[n] {
				return parsed[i].nums[n] < parsed[j].nums[n]
			}
		}
		return parsed[i].raw < parsed[j].raw
	})
	out := make([]string, 0, len(parsed))
	for _, k := range parsed {
		out = append(out, k.raw)
	}
	return Ordering{Contexts: out, Confidence: OrderingInferred}
}

// LatestPolicy selects the newest context. The default implementation
// trusts InferOrdering; deployments with bespoke naming plug their own.
type LatestPolicy interface {
	Latest(contexts []string) (string, bool)
}

// OrderedLatest is the default LatestPolicy: the last value of an inferred
// ordering. When ordering is unknown it declines rather than picking.
type OrderedLatest struct{}

func (OrderedLatest) Latest(contexts []string) (string, bool) {
	ord := InferOrdering(contexts)
	if ord.Confidence != OrderingInferred || len(ord.Contexts) == 0 {
		return "", false
	}
	return ord.Contexts[len(ord.Contexts)-1], true
}
