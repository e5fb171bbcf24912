package extractor

import (
	"regexp"
	"sort"
	"strings"
)

// region kinds
const (
	regionNarrative = "narrative"
	regionTable     = "table"
	regionFigure    = "figure"
)

// Region is a contiguous span of source text classified as atomic (must
// never be split) or non-atomic (eligible for sliding-window splitting).
type Region struct {
	Start      int
	End        int
	Text       string
	IsAtomic   bool
	RegionType string
}

// Anchor is a concept mention span in document-global character coordinates,
// rewritten to chunk-local coordinates once assigned to a chunk.
type Anchor struct {
	ConceptID string
	Label     string
	Role      string
	Start     int
	End       int
}

// ProtoChunk is the layout-aware chunking output before persistence: a
// document-centric slice of text, never concept-centric.
type ProtoChunk struct {
	CharStart           int
	CharEnd             int
	TokenCount          int
	Kind                string // narrative|figure_text|table_text|heading
	IsAtomic            bool
	RegionType          string
	Text                string
	SegmentID           int // index into the segments slice, -1 if unassigned
	Anchors             []Anchor
	ParseConfidence     float64
	ConfidenceSignals   map[string]any
	SegmentOverlapChars int
}

var (
	tableRowPattern = regexp.MustCompile(`(?m)^\s*\|.*\|\s*$`)
	figureFence     = regexp.MustCompile("(?s)```.*?```")
)

const (
	defaultChunkSizeTokens  = 256
	defaultChunkOverlap     = 64
	defaultMinChunkTokens   = 50
	defaultOrphanOverlapMin = 20
)

// detectRegions splits text into atomic (table/figure) and non-atomic
// (narrative) regions. A table region is a run of contiguous markdown
// table-row lines; a figure region is a fenced code block, standing in for
// vision-extracted figure text. Everything else is narrative.
func detectRegions(text string) []Region {
	type span struct {
		start, end int
		kind       string
	}
	var atomicSpans []span

	for _, loc := range figureFence.FindAllStringIndex(text, -1) {
		atomicSpans = append(atomicSpans, span{loc[0], loc[1], regionFigure})
	}

	for _, loc := range findTableBlocks(text) {
		atomicSpans = append(atomicSpans, span{loc[0], loc[1], regionTable})
	}

	sort.Slice(atomicSpans, func(i, j int) bool { return atomicSpans[i].start < atomicSpans[j].start })

	var regions []Region
	cursor := 0
	for _, sp := range atomicSpans {
		if sp.start < cursor {
			continue // overlapping atomic spans: keep the first, already merged logic upstream
		}
		if sp.start > cursor {
			regions = append(regions, Region{Start: cursor, End: sp.start, Text: text[cursor:sp.start], IsAtomic: false, RegionType: regionNarrative})
		}
		regions = append(regions, Region{Start: sp.start, End: sp.end, Text: text[sp.start:sp.end], IsAtomic: true, RegionType: sp.kind})
		cursor = sp.end
	}
	if cursor < len(text) {
		regions = append(regions, Region{Start: cursor, End: len(text), Text: text[cursor:], IsAtomic: false, RegionType: regionNarrative})
	}
	if len(regions) == 0 {
		regions = append(regions, Region{Start: 0, End: len(text), Text: text, IsAtomic: false, RegionType: regionNarrative})
	}
	return regions
}

// findTableBlocks merges consecutive matching table-row lines into single spans.
func findTableBlocks(text string) [][]int {
	matches := tableRowPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	var merged [][]int
	curStart, curEnd := matches[0][0], matches[0][1]
	for _, m := range matches[1:] {
		between := text[curEnd:m[0]]
		if strings.TrimSpace(between) == "" {
			curEnd = m[1]
			continue
		}
		merged = append(merged, []int{curStart, curEnd})
		curStart, curEnd = m[0], m[1]
	}
	merged = append(merged, []int{curStart, curEnd})
	return merged
}

func countTokens(s string) int {
	return len(strings.Fields(s))
}

// splitNarrative runs a sliding token window over a non-atomic region's text,
// returning byte offsets relative to the start of that region.
func splitNarrative(text string, sizeTokens, overlapTokens, minTokens int) [][2]int {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	// map word index -> byte offset in text, so windows can be translated back.
	offsets := make([]int, 0, len(words)+1)
	pos := 0
	for _, w := range words {
		idx := strings.Index(text[pos:], w)
		start := pos + idx
		offsets = append(offsets, start)
		pos = start + len(w)
	}
	offsets = append(offsets, len(text))

	var windows [][2]int
	step := sizeTokens - overlapTokens
	if step <= 0 {
		step = sizeTokens
	}
	for start := 0; start < len(words); start += step {
		end := start + sizeTokens
		if end > len(words) {
			end = len(words)
		}
		byteStart := offsets[start]
		byteEnd := offsets[end]
		if end == len(words) {
			byteEnd = len(text)
		}
		tokenCount := end - start
		if tokenCount < minTokens && len(windows) > 0 {
			// trailing remainder too small: dropped, the previous window
			// is left as it is
			continue
		}
		windows = append(windows, [2]int{byteStart, byteEnd})
		if end == len(words) {
			break
		}
	}
	if len(windows) == 0 {
		windows = append(windows, [2]int{0, len(text)})
	}
	return windows
}

func kindForRegion(r Region) string {
	switch r.RegionType {
	case regionTable:
		return "table_text"
	case regionFigure:
		return "figure_text"
	default:
		return "narrative"
	}
}

// parseConfidence scores a chunk heuristically: printable-char ratio,
// repetition penalty, and a small boost for atomic regions (already
// well-delimited by construction).
func parseConfidence(text string, isAtomic bool) (float64, map[string]any) {
	total := len(text)
	if total == 0 {
		return 0, map[string]any{"empty": true}
	}
	printable := 0
	for _, r := range text {
		if r == '\n' || r == '\t' || r == ' ' || (r >= 32 && r != 127) {
			printable++
		}
	}
	printableRatio := float64(printable) / float64(total)

	words := strings.Fields(text)
	uniq := map[string]struct{}{}
	for _, w := range words {
		uniq[strings.ToLower(w)] = struct{}{}
	}
	repetitionRatio := 1.0
	if len(words) > 0 {
		repetitionRatio = float64(len(uniq)) / float64(len(words))
	}

	score := 0.6*printableRatio + 0.4*repetitionRatio
	if isAtomic {
		score = score*0.9 + 0.1
	}
	if score > 1 {
		score = 1
	}
	signals := map[string]any{
		"printable_ratio":  printableRatio,
		"repetition_ratio": repetitionRatio,
		"is_atomic":        isAtomic,
	}
	return score, signals
}

// ChunkDocument implements the layout-aware chunking contract: detect atomic
// vs non-atomic regions, split non-atomic regions with a sliding token
// window, map each chunk to its best-overlap segment, and attach anchors in
// chunk-local coordinates. No chunk produced here is concept-centric; every
// chunk is a document-local span of text.
func ChunkDocument(text string, segments []Segment, anchors []Anchor, sizeTokens, overlapTokens, minTokens, orphanOverlapMin int) []ProtoChunk {
	if sizeTokens <= 0 {
		sizeTokens = defaultChunkSizeTokens
	}
	if overlapTokens < 0 {
		overlapTokens = defaultChunkOverlap
	}
	if minTokens <= 0 {
		minTokens = defaultMinChunkTokens
	}
	if orphanOverlapMin <= 0 {
		orphanOverlapMin = defaultOrphanOverlapMin
	}

	regions := detectRegions(text)
	var chunks []ProtoChunk

	for _, region := range regions {
		if region.IsAtomic {
			if strings.TrimSpace(region.Text) == "" {
				continue
			}
			chunks = append(chunks, ProtoChunk{
				CharStart:  region.Start,
				CharEnd:    region.End,
				TokenCount: countTokens(region.Text),
				Kind:       kindForRegion(region),
				IsAtomic:   true,
				RegionType: region.RegionType,
				Text:       region.Text,
				SegmentID:  -1,
			})
			continue
		}
		windows := splitNarrative(region.Text, sizeTokens, overlapTokens, minTokens)
		for _, w := range windows {
			chunkText := region.Text[w[0]:w[1]]
			if strings.TrimSpace(chunkText) == "" {
				continue
			}
			chunks = append(chunks, ProtoChunk{
				CharStart:  region.Start + w[0],
				CharEnd:    region.Start + w[1],
				TokenCount: countTokens(chunkText),
				Kind:       kindForRegion(region),
				IsAtomic:   false,
				RegionType: region.RegionType,
				Text:       chunkText,
				SegmentID:  -1,
			})
		}
	}

	assignSegments(chunks, segments, orphanOverlapMin)
	assignAnchors(chunks, anchors)

	for i := range chunks {
		score, signals := parseConfidence(chunks[i].Text, chunks[i].IsAtomic)
		chunks[i].ParseConfidence = score
		chunks[i].ConfidenceSignals = signals
	}

	return chunks
}

func overlapChars(aStart, aEnd, bStart, bEnd int) int {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end <= start {
		return 0
	}
	return end - start
}

// assignSegments picks, for each chunk, the segment with maximum character
// overlap. Segments here are synthetic: segment i spans the concatenation
// order of the segments slice, proportional to each segment's text length.
// Ties break on smaller center distance, then smaller segment index.
func assignSegments(chunks []ProtoChunk, segments []Segment, orphanOverlapMin int) {
	if len(segments) == 0 {
		return
	}
	type segSpan struct {
		start, end int
	}
	spans := make([]segSpan, 0, len(segments))
	cursor := 0
	for _, s := range segments {
		l := len(s.Text)
		spans = append(spans, segSpan{cursor, cursor + l})
		cursor += l
	}

	for i := range chunks {
		c := &chunks[i]
		bestIdx := -1
		bestOverlap := 0
		bestCenterDist := -1
		for si, sp := range spans {
			ov := overlapChars(c.CharStart, c.CharEnd, sp.start, sp.end)
			if ov == 0 {
				continue
			}
			chunkCenter := (c.CharStart + c.CharEnd) / 2
			segCenter := (sp.start + sp.end) / 2
			dist := chunkCenter - segCenter
			if dist < 0 {
				dist = -dist
			}
			switch {
			case ov > bestOverlap:
				bestIdx, bestOverlap, bestCenterDist = si, ov, dist
			case ov == bestOverlap && bestIdx >= 0 && dist < bestCenterDist:
				bestIdx, bestCenterDist = si, dist
			}
		}
		if bestIdx >= 0 && bestOverlap >= orphanOverlapMin {
			c.SegmentID = bestIdx
			c.SegmentOverlapChars = bestOverlap
		}
	}
}

// assignAnchors attaches every anchor overlapping a chunk's span, rewriting
// the anchor's coordinates to be chunk-local.
func assignAnchors(chunks []ProtoChunk, anchors []Anchor) {
	for i := range chunks {
		c := &chunks[i]
		for _, a := range anchors {
			ov := overlapChars(c.CharStart, c.CharEnd, a.Start, a.End)
			if ov == 0 {
				continue
			}
			local := a
			local.Start = maxInt(0, a.Start-c.CharStart)
			local.End = minInt(c.CharEnd-c.CharStart, a.End-c.CharStart)
			c.Anchors = append(c.Anchors, local)
		}
	}
}
