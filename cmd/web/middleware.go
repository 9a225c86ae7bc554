package main

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/BY1502/ai-interview-service/internal/handler"
	"github.com/BY1502/ai-interview-service/internal/store"
	"github.com/BY1502/ai-interview-service/internal/workflow"
	"github.com/BY1502/ai-interview-service/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const clientCookie = "aii_client"

// ClientMiddleware identifies the browser by its signed client cookie and
// loads its state. A missing or tampered cookie starts a new client.
func (app *application) ClientMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := uuid.Nil
		if raw, err := c.Cookie(clientCookie); err == nil {
			if claims, err := app.Tokens.Verify(raw); err == nil {
				clientID = claims.ClientID
			} else {
				app.Logger.Sugar().Debugw("client cookie rejected", "err", err)
			}
		}

		if clientID == uuid.Nil {
			clientID = uuid.New()
			token, _, err := app.Tokens.Issue(clientID)
			if err != nil {
				app.Logger.Sugar().Errorw("error creating client token", "err", err)
				response.InternalError(c, "")
				c.Abort()
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(clientCookie, token, int(app.Tokens.TTL()/time.Second), "/", "", app.Config.Cookie.Secure, true)
		}

		st, err := app.Handler.Clients.Get(c.Request.Context(), clientID.String())
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				app.Logger.Sugar().Warnw("failed to load client state", "client", clientID, "err", err)
			}
			st = store.NewClientState(clientID.String())
		}
		handler.SetClientState(c, st)
		c.Next()
	}
}

// AuthMiddleware lets only signed-in clients through. The identity is probed
// once per request.
func (app *application) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch workflow.Guard(app.Handler.Probe(c)) {
		case workflow.GuardAllow:
			c.Next()
			return
		case workflow.GuardWait:
			app.Handler.Loading(c)
		default:
			app.Handler.RequireLogin(c)
		}
		c.Abort()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware keeps one token bucket per client IP.
func (app *application) RateLimitMiddleware() gin.HandlerFunc {
	var (
		mu       sync.Mutex
		visitors = map[string]*visitor{}
		swept    = time.Now()
	)
	limit := rate.Limit(app.Config.Limiter.RPS)
	burst := app.Config.Limiter.Burst

	return func(c *gin.Context) {
		now := time.Now()
		ip := c.ClientIP()

		mu.Lock()
		if now.Sub(swept) > time.Minute {
			for k, v := range visitors {
				if now.Sub(v.lastSeen) > 3*time.Minute {
					delete(visitors, k)
				}
			}
			swept = now
		}
		v, ok := visitors[ip]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(limit, burst)}
			visitors[ip] = v
		}
		v.lastSeen = now
		allowed := v.limiter.Allow()
		mu.Unlock()

		if !allowed {
			response.TooManyRequests(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}
