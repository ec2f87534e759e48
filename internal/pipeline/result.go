package pipeline

import "fmt"

// Status classifies the outcome of one analysis.
type Status int

const (
	// StatusOK means at least one medication was resolved.
	StatusOK Status = iota
	// StatusNoText means OCR produced zero usable lines. Not a fault:
	// downstream consumers treat it as zero medications.
	StatusNoText
	// StatusNoMedications means text was extracted but nothing matched the
	// lexicon. Also not a fault.
	StatusNoMedications
	// StatusImageUnreadable means the input file could not be decoded.
	StatusImageUnreadable
	// StatusEngineUnavailable means the OCR engine failed to initialize;
	// the condition is permanent until restart.
	StatusEngineUnavailable
	// StatusInternal covers unexpected failures inside the pipeline.
	StatusInternal
)

// String returns the metrics/log label for the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoText:
		return "no_text"
	case StatusNoMedications:
		return "no_medications"
	case StatusImageUnreadable:
		return "image_unreadable"
	case StatusEngineUnavailable:
		return "engine_unavailable"
	case StatusInternal:
		return "internal_error"
	default:
		return "unknown"
	}
}

// Failed reports whether the analysis terminated on a fault (as opposed to
// completing with an empty medication set).
func (s Status) Failed() bool {
	return s == StatusImageUnreadable || s == StatusEngineUnavailable || s == StatusInternal
}

// Diagnostic markers used when rendering results as a flat medication list.
const (
	// DiagErrorPrefix marks terminal request failures.
	DiagErrorPrefix = "Error:"
	// DiagCriticalPrefix marks unexpected internal failures.
	DiagCriticalPrefix = "Critical Analysis Error:"
	// DiagNoMatchPrefix marks completions where nothing matched the lexicon.
	DiagNoMatchPrefix = "Could not reliably extract medicine names."
)

// maxSnippetLen bounds RawTextSnippet; longer raw text is truncated with an
// ellipsis marker.
const maxSnippetLen = 200

// Result is the structured outcome of one prescription analysis. It is
// created fresh per request and carries no references into pipeline state.
type Result struct {
	Status         Status   `json:"status"`
	Medications    []string `json:"medications"`    // canonical names, sorted; empty unless StatusOK
	Interactions   []string `json:"interactions"`   // warnings in discovery order
	RawTextSnippet string   `json:"rawTextSnippet"` // truncated combined OCR text
	AccuracyScore  float64  `json:"accuracyScore"`  // 0-99.9, one decimal
	Message        string   `json:"message,omitempty"`
}

// DisplayMedications renders the medication list for callers that present
// one uniform result shape regardless of outcome: a successful analysis
// yields the canonical names, every other outcome yields a single
// diagnostic element starting with one of the Diag* prefixes.
func (r *Result) DisplayMedications() []string {
	switch r.Status {
	case StatusOK:
		return r.Medications
	case StatusNoText, StatusNoMedications:
		return []string{fmt.Sprintf("%s Raw Text Snippet: %s", DiagNoMatchPrefix, r.RawTextSnippet)}
	case StatusInternal:
		return []string{fmt.Sprintf("%s %s", DiagCriticalPrefix, r.Message)}
	default:
		return []string{fmt.Sprintf("%s %s", DiagErrorPrefix, r.Message)}
	}
}

// snippet truncates raw OCR text for inclusion in results.
func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= maxSnippetLen {
		return text
	}
	return string(runes[:maxSnippetLen]) + "..."
}
