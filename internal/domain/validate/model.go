package validate

// Severity grades a validation finding. Errors cap the record at PARTIAL;
// warnings and infos are advisory.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Check names which validation rule produced an issue.
type Check string

const (
	CheckCrossSource   Check = "cross-source-disagreement"
	CheckDuplicateCode Check = "duplicate-code"
	CheckMissingField  Check = "missing-required-field"
	CheckLowConfidence Check = "low-confidence"
	CheckDegradedStage Check = "degraded-stage"
	CheckInvalidCode   Check = "invalid-embedded-code"
)

// Issue is one validation finding. RefA and RefB identify the data points
// involved; RefB is empty for single-point findings. Issues only ever
// accumulate; no check removes or mutates prior data.
type Issue struct {
	Severity    Severity `json:"severity"`
	Check       Check    `json:"check"`
	RefA        string   `json:"ref_a,omitempty"`
	RefB        string   `json:"ref_b,omitempty"`
	Description string   `json:"description"`
}
