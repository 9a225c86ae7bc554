package model

type Report struct {
	SessionID     int64    `json:"session_id"`
	ReportID      int64    `json:"report_id,omitempty"`
	TotalScore    *float64 `json:"total_score"`
	SummaryMD     string   `json:"summary_md"`
	SuggestionsMD string   `json:"suggestions_md"`
	CreatedAt     string   `json:"created_at,omitempty"`
}

// HasBody reports whether the report carries generated text, as opposed to
// the bare acknowledgement some backends return from the create call.
func (r *Report) HasBody() bool {
	return r != nil && (r.SummaryMD != "" || r.SuggestionsMD != "")
}
