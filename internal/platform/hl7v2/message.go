package hl7v2

import (
	"fmt"
	"strings"
	"time"
)

// Message represents a parsed HL7v2 message.
type Message struct {
	Type      string    // MSH-9 message type (e.g. "ADT^A01")
	ControlID string    // MSH-10
	Version   string    // MSH-12 (e.g. "2.5.1")
	Timestamp time.Time // MSH-7
	Segments  []Segment
}

// Segment represents a single HL7v2 segment. A segment that fails strict
// parsing is retained with Unparsed set and its raw line in Raw, so one bad
// segment never discards the rest of the message.
type Segment struct {
	Name     string // e.g. "MSH", "PID", "DG1", "OBX"
	Fields   []Field
	Raw      string
	Unparsed bool
}

// Field represents a field which can have components and repetitions.
type Field struct {
	Value      string
	Components []string   // Component-separated (^)
	Repeats    [][]string // Repetition-separated (~), each with components
}

// Parse parses raw HL7v2 message bytes into a structured Message.
// It supports \r, \n, and \r\n line endings for segment separation.
// Individual malformed segments are kept as unparsed; Parse fails only when
// the message as a whole is unusable (empty, or no MSH header).
func Parse(raw []byte) (*Message, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("hl7v2: message is empty")
	}

	text := string(raw)

	// Normalize line endings: replace \r\n with \r, then replace \n with \r
	text = strings.ReplaceAll(text, "\r\n", "\r")
	text = strings.ReplaceAll(text, "\n", "\r")

	var segmentLines []string
	for _, line := range strings.Split(text, "\r") {
		line = strings.TrimSpace(line)
		if line != "" {
			segmentLines = append(segmentLines, line)
		}
	}

	if len(segmentLines) == 0 {
		return nil, fmt.Errorf("hl7v2: no segments found")
	}

	// First segment must be MSH
	if !strings.HasPrefix(segmentLines[0], "MSH") {
		return nil, fmt.Errorf("hl7v2: first segment must be MSH, got %q", segmentLines[0][:min(3, len(segmentLines[0]))])
	}

	msg := &Message{}

	for _, line := range segmentLines {
		seg, err := parseSegment(line)
		if err != nil {
			// Retain the raw line rather than aborting the whole message.
			msg.Segments = append(msg.Segments, Segment{
				Name:     segmentName(line),
				Raw:      line,
				Unparsed: true,
			})
			continue
		}
		seg.Raw = line
		msg.Segments = append(msg.Segments, seg)
	}

	if err := msg.extractMSHFields(); err != nil {
		return nil, err
	}

	return msg, nil
}

// segmentName returns the leading segment identifier of a raw line, best effort.
func segmentName(line string) string {
	name := line
	if i := strings.Index(line, "|"); i >= 0 {
		name = line[:i]
	}
	if len(name) > 3 {
		name = name[:3]
	}
	return name
}

// parseSegment parses a single segment line into a Segment struct.
func parseSegment(line string) (Segment, error) {
	if len(line) < 3 {
		return Segment{}, fmt.Errorf("segment too short: %q", line)
	}

	seg := Segment{}

	// MSH is special: the field separator (|) is MSH-1 itself.
	if strings.HasPrefix(line, "MSH") {
		seg.Name = "MSH"
		if len(line) < 4 {
			return seg, nil
		}

		fieldSep := string(line[3]) // should be |
		rest := line[4:]            // everything after "MSH|"
		parts := strings.Split(rest, fieldSep)

		// Fields[0] = MSH-1 = the separator itself, Fields[1] = MSH-2
		// (encoding characters), Fields[2] = MSH-3, and so on.
		seg.Fields = append(seg.Fields, Field{
			Value:      fieldSep,
			Components: []string{fieldSep},
		})
		for _, part := range parts {
			seg.Fields = append(seg.Fields, parseField(part))
		}
		return seg, nil
	}

	// Normal segments: name|field1|field2|...
	parts := strings.SplitN(line, "|", 2)
	seg.Name = parts[0]
	if seg.Name == "" || len(seg.Name) != 3 {
		return Segment{}, fmt.Errorf("invalid segment name in %q", line)
	}

	if len(parts) > 1 {
		for _, f := range strings.Split(parts[1], "|") {
			seg.Fields = append(seg.Fields, parseField(f))
		}
	}

	return seg, nil
}

// parseField parses a single field, handling components (^) and repetitions (~).
func parseField(raw string) Field {
	f := Field{
		Value: raw,
	}

	for _, rep := range strings.Split(raw, "~") {
		f.Repeats = append(f.Repeats, strings.Split(rep, "^"))
	}

	if len(f.Repeats) > 0 {
		f.Components = f.Repeats[0]
	} else {
		f.Components = strings.Split(raw, "^")
	}

	return f
}

// extractMSHFields extracts commonly used MSH fields into the Message struct.
func (m *Message) extractMSHFields() error {
	msh := m.GetSegment("MSH")
	if msh == nil || msh.Unparsed {
		return fmt.Errorf("hl7v2: MSH segment not found")
	}

	// MSH field indexing: Fields[0]=MSH-1 (|), Fields[1]=MSH-2 (^~\&),
	// Fields[6]=MSH-7 (timestamp), Fields[8]=MSH-9 (type),
	// Fields[9]=MSH-10 (control ID), Fields[11]=MSH-12 (version).
	m.Type = mshField(msh, 8)
	m.ControlID = mshField(msh, 9)
	m.Version = mshField(msh, 11)

	if ts := mshField(msh, 6); ts != "" {
		if t, err := parseHL7Timestamp(ts); err == nil {
			m.Timestamp = t
		}
	}

	return nil
}

// mshField returns the value of an MSH field by its 0-based index into the Fields slice.
func mshField(msh *Segment, index int) string {
	if index >= len(msh.Fields) {
		return ""
	}
	return msh.Fields[index].Value
}

// parseHL7Timestamp parses an HL7v2 timestamp string (YYYYMMDDHHmmss or YYYYMMDD).
func parseHL7Timestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	switch {
	case len(s) >= 14:
		return time.Parse("20060102150405", s[:14])
	case len(s) >= 12:
		return time.Parse("200601021504", s[:12])
	case len(s) >= 8:
		return time.Parse("20060102", s[:8])
	default:
		return time.Time{}, fmt.Errorf("hl7v2: unrecognized timestamp format: %q", s)
	}
}

// GetSegment returns the first segment with the given name, or nil if not found.
func (m *Message) GetSegment(name string) *Segment {
	for i := range m.Segments {
		if m.Segments[i].Name == name {
			return &m.Segments[i]
		}
	}
	return nil
}

// GetSegments returns all segments with the given name.
func (m *Message) GetSegments(name string) []Segment {
	var result []Segment
	for _, seg := range m.Segments {
		if seg.Name == name {
			result = append(result, seg)
		}
	}
	return result
}

// GetField returns the value of a field by 1-based index.
// For non-MSH segments, field index 1 corresponds to Fields[0].
// For MSH, MSH-1 is Fields[0] (the field separator).
func (s *Segment) GetField(index int) string {
	idx := index - 1
	if idx < 0 || idx >= len(s.Fields) {
		return ""
	}
	return s.Fields[idx].Value
}

// GetComponent returns a component value by 1-based field and component indices.
func (s *Segment) GetComponent(fieldIdx, compIdx int) string {
	idx := fieldIdx - 1
	if idx < 0 || idx >= len(s.Fields) {
		return ""
	}
	ci := compIdx - 1
	if ci < 0 || ci >= len(s.Fields[idx].Components) {
		return ""
	}
	return s.Fields[idx].Components[ci]
}
