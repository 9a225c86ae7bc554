package handler

import (
	"errors"
	"net/http"

	"github.com/BY1502/ai-interview-service/internal/interviewapi"
	"github.com/BY1502/ai-interview-service/internal/workflow"
	"github.com/BY1502/ai-interview-service/pkg"
	"github.com/gin-gonic/gin"
)

// ReportPage shows the session's report. A report that cannot be read
// renders as not generated yet.
func (h *Handler) ReportPage(c *gin.Context) {
	id, ok := pkg.ParseID(c.Param("id"))
	if !ok {
		h.NotFound(c)
		return
	}
	h.renderReport(c, http.StatusOK, h.reportView(c, id), "")
}

func (h *Handler) reportView(c *gin.Context, id int64) workflow.ReportView {
	view := workflow.NewReports(h.api(c)).View(c.Request.Context(), id)
	if view.Cause != nil && !errors.Is(view.Cause, interviewapi.ErrNotFound) {
		h.logBackend(c, "read report failed", view.Cause, "session", id)
	}
	return view
}

// GenerateReport creates or regenerates the report. On failure the page
// keeps what it showed before.
func (h *Handler) GenerateReport(c *gin.Context) {
	id, ok := pkg.ParseID(c.Param("id"))
	if !ok {
		h.NotFound(c)
		return
	}
	view, err := workflow.NewReports(h.api(c)).Generate(c.Request.Context(), id)
	if err != nil {
		h.logBackend(c, "generate report failed", err, "session", id)
		if wantsJSON(c) {
			h.fail(c, err)
			return
		}
		if workflow.IsUnauthorized(err) {
			h.signOut(c)
			h.redirect(c, workflow.PathLogin)
			return
		}
		h.renderReport(c, statusFor(err), h.reportView(c, id), workflow.Describe(err))
		return
	}
	if wantsJSON(c) {
		h.ok(c, view.Report)
		return
	}
	h.redirect(c, workflow.ReportPath(id))
}

func (h *Handler) renderReport(c *gin.Context, status int, view workflow.ReportView, notice string) {
	h.render(c, status, "report.html", gin.H{
		"Title":  "Report",
		"View":   view,
		"Absent": view.Status == workflow.ReportAbsent,
		"Error":  notice,
	})
}
