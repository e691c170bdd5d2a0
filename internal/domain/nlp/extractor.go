package nlp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/medrec/medrec/internal/domain/extract"
)

// Extractor runs a recognizer over every free-text segment of an
// extraction, windowing long segments so no single recognizer call exceeds
// the backend's limit. Mentions found twice across a window seam are merged.
type Extractor struct {
	rec       Recognizer
	maxWindow int
	overlap   int
}

// NewExtractor creates an entity extractor. maxWindow bounds the text
// handed to a single recognizer call; overlap is how much consecutive
// windows share so mentions on a seam are not cut in half.
func NewExtractor(rec Recognizer, maxWindow, overlap int) *Extractor {
	return &Extractor{rec: rec, maxWindow: maxWindow, overlap: overlap}
}

// Extract recognizes entities across all segments of an extraction. The
// result is ordered by segment, then left to right, longer spans first.
func (e *Extractor) Extract(ctx context.Context, raw *extract.RawExtraction) ([]Entity, error) {
	var entities []Entity

	for segIdx, seg := range raw.Segments {
		segEntities, err := e.extractSegment(ctx, segIdx, seg.Text)
		if err != nil {
			return nil, fmt.Errorf("nlp: segment %d: %w", segIdx, err)
		}
		entities = append(entities, segEntities...)
	}

	sort.SliceStable(entities, func(i, j int) bool {
		a, b := entities[i], entities[j]
		if a.Segment != b.Segment {
			return a.Segment < b.Segment
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End-a.Start > b.End-b.Start
	})

	return entities, nil
}

func (e *Extractor) extractSegment(ctx context.Context, segIdx int, text string) ([]Entity, error) {
	var entities []Entity

	for _, w := range windows(text, e.maxWindow, e.overlap) {
		mentions, err := e.rec.Recognize(ctx, w.text)
		if err != nil {
			return nil, err
		}
		for _, m := range mentions {
			ent, ok := fromMention(segIdx, w.offset, m)
			if !ok {
				continue
			}
			entities = mergeEntity(entities, ent)
		}
	}

	return entities, nil
}

// fromMention converts a raw mention into an entity, dropping labels
// outside the taxonomy and clamping confidence into [0, 1].
func fromMention(segIdx, offset int, m Mention) (Entity, bool) {
	typ, ok := labelTypes[strings.ToLower(strings.TrimSpace(m.Label))]
	if !ok {
		return Entity{}, false
	}
	if m.End <= m.Start || strings.TrimSpace(m.Text) == "" {
		return Entity{}, false
	}

	conf := m.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}

	return Entity{
		ID:         uuid.New(),
		Type:       typ,
		Surface:    m.Text,
		Segment:    segIdx,
		Start:      offset + m.Start,
		End:        offset + m.End,
		Confidence: conf,
	}, true
}

// mergeEntity appends ent unless it overlaps an existing entity of the same
// type by more than half of the smaller span, in which case the higher
// confidence one wins. Overlapping duplicates come from window seams.
func mergeEntity(entities []Entity, ent Entity) []Entity {
	for i, ex := range entities {
		if ex.Type != ent.Type {
			continue
		}
		if overlapRatio(ex.Start, ex.End, ent.Start, ent.End) <= 0.5 {
			continue
		}
		if ent.Confidence > ex.Confidence {
			ent.ID = ex.ID
			entities[i] = ent
		}
		return entities
	}
	return append(entities, ent)
}

// overlapRatio is the overlap of two spans relative to the shorter span.
func overlapRatio(aStart, aEnd, bStart, bEnd int) float64 {
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
	shorter := aEnd - aStart
	if bEnd-bStart < shorter {
		shorter = bEnd - bStart
	}
	return float64(end-start) / float64(shorter)
}

type window struct {
	text   string
	offset int
}

// windows splits text into chunks of at most max bytes, preferring to break
// at whitespace, with consecutive chunks sharing overlap bytes.
func windows(text string, max, overlap int) []window {
	if max <= 0 || len(text) <= max {
		return []window{{text: text}}
	}
	if overlap >= max {
		overlap = max / 2
	}

	var out []window
	pos := 0
	for pos < len(text) {
		end := pos + max
		if end >= len(text) {
			out = append(out, window{text: text[pos:], offset: pos})
			break
		}

		// Break at the last whitespace inside the window when there is one.
		cut := end
		if i := strings.LastIndexFunc(text[pos:end], isSpace); i > 0 {
			cut = pos + i
		}

		out = append(out, window{text: text[pos:cut], offset: pos})

		next := cut - overlap
		if next <= pos {
			next = cut
		}
		pos = next
	}
	return out
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
