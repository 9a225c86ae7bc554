package handler

import (
	"net/http"

	"github.com/BY1502/ai-interview-service/internal/workflow"
	"github.com/gin-gonic/gin"
)

// ListSessions shows the client's sessions, optionally filtered by ?company=.
func (h *Handler) ListSessions(c *gin.Context) {
	view := workflow.NewSessionList(h.api(c)).Load(c.Request.Context(), c.Query("company"))
	if view.Status == workflow.ListFailed {
		if workflow.IsUnauthorized(view.Cause) {
			h.signOut(c)
			h.redirect(c, workflow.PathLogin)
			return
		}
		h.logBackend(c, "list sessions failed", view.Cause, "company", view.Filter)
	}

	data := gin.H{
		"Title": "My sessions",
		"View":  view,
		"Empty": view.Status == workflow.ListEmpty,
	}
	if view.Status == workflow.ListFailed {
		data["Error"] = workflow.Describe(view.Cause)
	}
	h.render(c, http.StatusOK, "sessions.html", data)
}
