package model

// State is a step of the validation pipeline.
type State string

const (
	StateStart           State = "start"
	StateHeadersParsed   State = "headers_parsed"
	StateRowsParsed      State = "rows_parsed"
	StateFieldsValidated State = "fields_validated"
	StateBatchValidated  State = "batch_validated"
	StateReportReady     State = "report_ready"
)

// Report is the result of one pipeline run.
type Report struct {
	Findings    []Finding      `json:"findings"`
	TotalRows   int            `json:"total_rows"`
	ValidRows   int            `json:"valid_rows"`
	InvalidRows int            `json:"invalid_rows"`
	WarnedRows  int            `json:"warned_rows"`
	Records     []BudgetRecord `json:"records"`
	Trace       []State        `json:"trace"`
}

// Errors returns the error-level findings.
func (r Report) Errors() []Finding { return r.bySeverity(SeverityError) }

// Warnings returns the warning-level findings.
func (r Report) Warnings() []Finding { return r.bySeverity(SeverityWarning) }

// Suggestions returns the suggestion findings.
func (r Report) Suggestions() []Finding { return r.bySeverity(SeveritySuggestion) }

// HasErrors reports whether any finding is an error.
func (r Report) HasErrors() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ByKind returns the findings of the given kind.
func (r Report) ByKind(kind string) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// AppliedCorrections counts suggestions that changed a value.
func (r Report) AppliedCorrections() int {
	n := 0
	for _, f := range r.Findings {
		if f.Suggestion != nil && f.Suggestion.Applied {
			n++
		}
	}
	return n
}

func (r Report) bySeverity(s Severity) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}
