package handler

import (
	"net/http"

	"github.com/BY1502/ai-interview-service/internal/workflow"
	"github.com/BY1502/ai-interview-service/pkg/model"
	"github.com/gin-gonic/gin"
)

// LoginPage shows the login form; signed-in clients go home.
func (h *Handler) LoginPage(c *gin.Context) {
	if h.Probe(c).SignedIn() {
		h.redirect(c, workflow.PathHome)
		return
	}
	h.render(c, http.StatusOK, "login.html", gin.H{"Title": "Log in"})
}

// Login forwards the credentials to the backend and keeps its session cookie
func (h *Handler) Login(c *gin.Context) {
	var creds model.Credentials
	if err := c.ShouldBind(&creds); err != nil {
		h.Logger.Sugar().Warnw("login bad request", "err", err)
	}

	auth, tr, err := workflow.NewGate(h.api(c)).Login(c.Request.Context(), creds)
	if err != nil {
		h.logBackend(c, "login failed", err, "email", creds.Email)
		h.render(c, statusFor(err), "login.html", gin.H{
			"Title":  "Log in",
			"Email":  creds.Email,
			"Errors": fieldErrors(err),
			"Error":  workflow.Describe(err),
		})
		return
	}
	c.Set(ctxAuth, auth)
	h.redirect(c, tr.Redirect)
}

func (h *Handler) SignupPage(c *gin.Context) {
	if h.Probe(c).SignedIn() {
		h.redirect(c, workflow.PathHome)
		return
	}
	h.render(c, http.StatusOK, "signup.html", gin.H{"Title": "Sign up"})
}

func (h *Handler) Signup(c *gin.Context) {
	var creds model.Credentials
	if err := c.ShouldBind(&creds); err != nil {
		h.Logger.Sugar().Warnw("signup bad request", "err", err)
	}

	auth, tr, err := workflow.NewGate(h.api(c)).Signup(c.Request.Context(), creds)
	if err != nil {
		h.logBackend(c, "signup failed", err, "email", creds.Email)
		h.render(c, statusFor(err), "signup.html", gin.H{
			"Title":  "Sign up",
			"Email":  creds.Email,
			"Errors": fieldErrors(err),
			"Error":  workflow.Describe(err),
		})
		return
	}
	c.Set(ctxAuth, auth)
	h.redirect(c, tr.Redirect)
}

// Logout always lands on the login screen, whatever the backend said.
func (h *Handler) Logout(c *gin.Context) {
	_, tr, err := workflow.NewGate(h.api(c)).Logout(c.Request.Context())
	if err != nil {
		h.Logger.Sugar().Debugw("logout call failed", "client", ClientFromContext(c).ClientID, "err", err)
	}
	h.signOut(c)

	st := ClientFromContext(c)
	st.Credentials = map[string]string{}
	if st.ClientID != "" {
		if err := h.Clients.Delete(c.Request.Context(), st.ClientID); err != nil {
			h.Logger.Sugar().Errorw("failed to delete client state", "client", st.ClientID, "err", err)
		}
	}
	h.redirect(c, tr.Redirect)
}
