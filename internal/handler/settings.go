package handler

import (
	"net/http"
	"strings"

	"github.com/BY1502/ai-interview-service/internal/config"
	"github.com/BY1502/ai-interview-service/internal/workflow"
	"github.com/gin-gonic/gin"
)

// SettingsPage shows the backend this client talks to.
func (h *Handler) SettingsPage(c *gin.Context) {
	h.renderSettings(c, http.StatusOK, h.backendURL(c.Request.Context(), ClientFromContext(c).ClientID), "")
}

// SaveSettings switches the client to another backend. The old backend's
// session does not carry over, so its cookies are dropped.
func (h *Handler) SaveSettings(c *gin.Context) {
	raw := strings.TrimRight(strings.TrimSpace(c.PostForm("backend_url")), "/")
	if raw == "" {
		raw = h.Backend.DefaultURL
	}
	if err := config.ValidateBackendURL(raw); err != nil {
		h.renderSettings(c, http.StatusUnprocessableEntity, raw, "Enter an absolute http(s) URL.")
		return
	}

	ctx := c.Request.Context()
	st := ClientFromContext(c)
	current := h.backendURL(ctx, st.ClientID)
	if err := h.Prefs.SetBackendURL(ctx, st.ClientID, raw); err != nil {
		h.Logger.Sugar().Errorw("failed to save backend url", "client", st.ClientID, "err", err)
		h.renderSettings(c, http.StatusInternalServerError, raw, "The setting could not be saved.")
		return
	}
	if raw != current {
		h.signOut(c)
	}
	h.redirect(c, workflow.PathHome)
}

func (h *Handler) renderSettings(c *gin.Context, status int, backendURL, notice string) {
	h.render(c, status, "settings.html", gin.H{
		"Title":      "Settings",
		"BackendURL": backendURL,
		"DefaultURL": h.Backend.DefaultURL,
		"Error":      notice,
	})
}
