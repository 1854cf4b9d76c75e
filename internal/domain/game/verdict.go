package game

// QualityScore holds four independent 0-100 sub-scores and their rounded
// unweighted mean.
type QualityScore struct {
	Coherence     int `json:"coherence"`
	Balance       int `json:"balance"`
	Entertainment int `json:"entertainment"`
	Educational   int `json:"educational"`
	Overall       int `json:"overall"`
}

// ValidationVerdict is the structured result of validating a payload or a
// state change. Errors are hard violations; Warnings are advisory.
type ValidationVerdict struct {
	Valid    bool            `json:"valid"`
	Errors   []string        `json:"errors,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
	Repaired *GeneratedEvent `json:"repaired,omitempty"`
	Quality  *QualityScore   `json:"quality,omitempty"`
}
