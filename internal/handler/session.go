package handler

import (
	"net/http"

	"github.com/BY1502/ai-interview-service/internal/workflow"
	"github.com/gin-gonic/gin"
)

func (h *Handler) NewSessionPage(c *gin.Context) {
	h.renderSessionForm(c, http.StatusOK, workflow.NewSessionForm(h.Forms), nil)
}

func (h *Handler) CreateSession(c *gin.Context) {
	var form workflow.SessionForm
	if err := c.ShouldBind(&form); err != nil {
		h.Logger.Sugar().Warnw("create session bad request", "err", err)
	}

	tr, err := workflow.NewSessionCreator(h.api(c), h.Forms).Create(c.Request.Context(), form)
	if err != nil {
		if workflow.IsUnauthorized(err) {
			h.signOut(c)
			h.redirect(c, workflow.PathLogin)
			return
		}
		h.logBackend(c, "create session failed", err, "company", form.Company, "role", form.Role)
		h.renderSessionForm(c, statusFor(err), form, err)
		return
	}
	h.redirect(c, tr.Redirect)
}

func (h *Handler) renderSessionForm(c *gin.Context, status int, form workflow.SessionForm, err error) {
	data := gin.H{
		"Title":   "New interview",
		"Form":    form,
		"Options": h.Forms,
		"Errors":  fieldErrors(err),
	}
	if err != nil {
		data["Error"] = workflow.Describe(err)
	}
	h.render(c, status, "new_session.html", data)
}
