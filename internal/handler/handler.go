package handler

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/BY1502/ai-interview-service/internal/config"
	"github.com/BY1502/ai-interview-service/internal/interviewapi"
	"github.com/BY1502/ai-interview-service/internal/store"
	"github.com/BY1502/ai-interview-service/internal/workflow"
	"github.com/BY1502/ai-interview-service/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ctxClient  = "client"
	ctxBackend = "backend"
	ctxAuth    = "auth"
)

// touchInterval is how long the state of a signed-in client may go without
// being rewritten. Every rewrite restarts its expiry.
const touchInterval = time.Hour

type Handler struct {
	Logger     *zap.Logger
	Clients    store.ClientStore
	Workspaces workflow.WorkspaceStore
	Prefs      store.Preferences
	HTTPClient *http.Client
	Backend    config.BackendConfig
	Forms      *config.FormOptions
}

// SetClientState attaches the browser's state to the request.
func SetClientState(c *gin.Context, st *store.ClientState) {
	c.Set(ctxClient, st)
}

// ClientFromContext retrieves the current client state from the gin context
func ClientFromContext(c *gin.Context) *store.ClientState {
	v, exists := c.Get(ctxClient)
	if !exists {
		return store.NewClientState("")
	}
	st, ok := v.(*store.ClientState)
	if !ok {
		return store.NewClientState("")
	}
	return st
}

func AuthFromContext(c *gin.Context) workflow.Auth {
	v, _ := c.Get(ctxAuth)
	a, _ := v.(workflow.Auth)
	return a
}

// api returns the backend client of this request, bound to the client's
// backend URL and credentials.
func (h *Handler) api(c *gin.Context) *interviewapi.Client {
	if v, ok := c.Get(ctxBackend); ok {
		if api, ok := v.(*interviewapi.Client); ok {
			return api
		}
	}
	st := ClientFromContext(c)
	api := interviewapi.NewClient(
		h.backendURL(c.Request.Context(), st.ClientID),
		interviewapi.Paths{AuthPrefix: h.Backend.AuthPrefix},
		h.HTTPClient,
		st.Credentials,
	)
	c.Set(ctxBackend, api)
	return api
}

func (h *Handler) backendURL(ctx context.Context, clientID string) string {
	u, err := h.Prefs.BackendURL(ctx, clientID)
	if err == nil && u != "" {
		return u
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.Logger.Sugar().Warnw("backend url lookup failed", "client", clientID, "err", err)
	}
	return h.Backend.DefaultURL
}

// saveCredentials persists cookies the backend changed during this request,
// and refreshes the stored state of an active signed-in client. It runs
// before any response is written, so the browser's next request already sees
// them.
func (h *Handler) saveCredentials(c *gin.Context) {
	v, ok := c.Get(ctxBackend)
	if !ok {
		return
	}
	api, ok := v.(*interviewapi.Client)
	if !ok {
		return
	}
	st := ClientFromContext(c)
	creds := api.Credentials()
	if st.ClientID == "" {
		return
	}
	if maps.Equal(creds, st.Credentials) && (len(creds) == 0 || time.Since(st.UpdatedAt) < touchInterval) {
		return
	}
	st.Credentials = creds
	if err := h.Clients.Put(c.Request.Context(), st); err != nil {
		h.Logger.Sugar().Errorw("failed to save client state", "client", st.ClientID, "err", err)
		return
	}
	st.UpdatedAt = time.Now().UTC()
}

// signOut forgets the client's backend session.
func (h *Handler) signOut(c *gin.Context) {
	h.api(c).ClearCredentials()
	c.Set(ctxAuth, workflow.Auth{Resolved: true})
}

// Probe resolves the client's identity with one backend call.
func (h *Handler) Probe(c *gin.Context) workflow.Auth {
	a := workflow.NewGate(h.api(c)).Probe(c.Request.Context())
	c.Set(ctxAuth, a)
	return a
}

// RequireLogin ends a guarded request of a signed-out client.
func (h *Handler) RequireLogin(c *gin.Context) {
	if wantsJSON(c) {
		h.saveCredentials(c)
		response.Unauthorized(c, "")
		return
	}
	h.redirect(c, workflow.PathLogin)
}

// Loading renders the placeholder shown while the identity is unresolved.
func (h *Handler) Loading(c *gin.Context) {
	h.render(c, http.StatusOK, "loading.html", gin.H{"Title": "Loading"})
}

func (h *Handler) Healthz(c *gin.Context) {
	response.OK(c, gin.H{"status": "ok"})
}

func (h *Handler) render(c *gin.Context, status int, name string, data gin.H) {
	h.saveCredentials(c)
	if data == nil {
		data = gin.H{}
	}
	data["Auth"] = AuthFromContext(c)
	data["Path"] = c.Request.URL.Path
	c.HTML(status, name, data)
}

func (h *Handler) redirect(c *gin.Context, to string) {
	h.saveCredentials(c)
	c.Redirect(http.StatusSeeOther, to)
}

func (h *Handler) ok(c *gin.Context, data interface{}) {
	h.saveCredentials(c)
	response.OK(c, data)
}

// fail answers a JSON request with the envelope matching err.
func (h *Handler) fail(c *gin.Context, err error) {
	if workflow.IsUnauthorized(err) {
		h.signOut(c)
	}
	h.saveCredentials(c)

	msg := workflow.Describe(err)
	var verr *workflow.ValidationError
	switch {
	case workflow.IsUnauthorized(err):
		response.Unauthorized(c, "")
	case errors.As(err, &verr), errors.Is(err, workflow.ErrEmptyAnswer), errors.Is(err, workflow.ErrNoAudio),
		errors.Is(err, interviewapi.ErrRejected):
		response.ValidationError(c, msg)
	case errors.Is(err, workflow.ErrUnknownQuestion), errors.Is(err, workflow.ErrVisitNotFound), errors.Is(err, interviewapi.ErrNotFound):
		response.NotFound(c, msg)
	default:
		response.BadGateway(c, msg)
	}
}

func (h *Handler) NotFound(c *gin.Context) {
	if wantsJSON(c) {
		response.NotFound(c, "")
		return
	}
	h.render(c, http.StatusNotFound, "error.html", gin.H{
		"Title":   "Not found",
		"Message": "The page you asked for does not exist.",
	})
}

// logBackend logs a failed backend call. Expired sign-ins are routine.
func (h *Handler) logBackend(c *gin.Context, msg string, err error, kv ...interface{}) {
	kv = append(kv, "client", ClientFromContext(c).ClientID, "err", err)
	if workflow.IsUnauthorized(err) {
		h.Logger.Sugar().Debugw(msg, kv...)
		return
	}
	h.Logger.Sugar().Warnw(msg, kv...)
}

// statusFor maps a backend failure to the status of the re-rendered page.
// Only failures to reach or use the backend are gateway errors.
func statusFor(err error) int {
	var verr *workflow.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, interviewapi.ErrRejected):
		return http.StatusUnprocessableEntity
	case workflow.IsUnauthorized(err):
		return http.StatusUnauthorized
	case errors.Is(err, interviewapi.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

func fieldErrors(err error) map[string]string {
	var verr *workflow.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}
