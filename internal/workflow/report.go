package workflow

import (
	"context"
	"fmt"

	"github.com/BY1502/ai-interview-service/pkg/model"
)

type ReportStatus string

const (
	ReportLoaded ReportStatus = "loaded"
	// ReportAbsent means no report has been generated yet. It is an expected
	// state, not an error.
	ReportAbsent ReportStatus = "absent"
)

type ReportView struct {
	SessionID int64
	Status    ReportStatus
	Report    *model.Report
	// Cause is the read failure behind an absent report, kept for logging.
	Cause error
}

type Reports struct {
	backend Backend
}

func NewReports(b Backend) *Reports {
	return &Reports{backend: b}
}

// View reads the current report. Any failure to read it renders as absent.
func (r *Reports) View(ctx context.Context, sessionID int64) ReportView {
	rep, err := r.backend.GetReport(ctx, sessionID)
	if err != nil {
		return ReportView{SessionID: sessionID, Status: ReportAbsent, Cause: err}
	}
	return ReportView{SessionID: sessionID, Status: ReportLoaded, Report: rep}
}

// Generate creates or regenerates the report and returns it as the view to
// display. On failure the caller keeps showing what it had.
func (r *Reports) Generate(ctx context.Context, sessionID int64) (ReportView, error) {
	rep, err := r.backend.CreateReport(ctx, sessionID)
	if err != nil {
		return ReportView{}, fmt.Errorf("generate report: %w", err)
	}
	return ReportView{SessionID: sessionID, Status: ReportLoaded, Report: rep}, nil
}
