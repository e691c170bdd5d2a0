package nlp

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// EntityType is the closed taxonomy of clinical entity kinds the pipeline
// codes. Recognizer labels outside this set are dropped.
type EntityType string

const (
	TypeDiagnosis  EntityType = "diagnosis"
	TypeMedication EntityType = "medication"
	TypeProcedure  EntityType = "procedure"
	TypeVital      EntityType = "vital"
	TypeLabValue   EntityType = "lab-value"
)

// ErrUnavailable indicates the recognizer backend could not be reached.
// The orchestrator treats it as a recoverable stage failure.
var ErrUnavailable = errors.New("nlp: recognizer unavailable")

// Mention is one raw span returned by a recognizer, with offsets relative
// to the text it was given.
type Mention struct {
	Label      string  `json:"label"`
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Recognizer finds clinical mentions in a piece of free text. The
// production implementation calls an external NER service.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]Mention, error)
}

// Entity is one recognized clinical entity, anchored to the segment it was
// found in. Start/End are byte offsets into that segment's text.
type Entity struct {
	ID         uuid.UUID  `json:"id"`
	Type       EntityType `json:"type"`
	Surface    string     `json:"surface"`
	Segment    int        `json:"segment"`
	Start      int        `json:"start"`
	End        int        `json:"end"`
	Confidence float64    `json:"confidence"`
}

// labelTypes maps the labels recognizers emit onto the entity taxonomy.
var labelTypes = map[string]EntityType{
	"diagnosis":  TypeDiagnosis,
	"disease":    TypeDiagnosis,
	"condition":  TypeDiagnosis,
	"problem":    TypeDiagnosis,
	"medication": TypeMedication,
	"drug":       TypeMedication,
	"procedure":  TypeProcedure,
	"treatment":  TypeProcedure,
	"vital":      TypeVital,
	"vital_sign": TypeVital,
	"lab":        TypeLabValue,
	"lab_value":  TypeLabValue,
	"test":       TypeLabValue,
}
