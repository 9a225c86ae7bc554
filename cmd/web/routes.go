package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (app *application) routes() http.Handler {
	if !app.Config.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// simple logger middleware that uses zap
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		app.Logger.Sugar().Infow("http", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "duration", time.Since(start))
	})

	if app.Config.Limiter.Enabled {
		r.Use(app.RateLimitMiddleware())
	}

	r.SetHTMLTemplate(app.Templates)
	r.GET("/healthz", app.Handler.Healthz)

	web := r.Group("/")
	web.Use(app.ClientMiddleware())
	{
		web.GET("/settings", app.Handler.SettingsPage)
		web.POST("/settings", app.Handler.SaveSettings)
		web.GET("/login", app.Handler.LoginPage)
		web.POST("/login", app.Handler.Login)
		web.GET("/signup", app.Handler.SignupPage)
		web.POST("/signup", app.Handler.Signup)
		web.POST("/logout", app.Handler.Logout)
	}

	guarded := web.Group("/")
	guarded.Use(app.AuthMiddleware())
	{
		guarded.GET("/", app.Handler.NewSessionPage)
		guarded.GET("/new", app.Handler.NewSessionPage)
		guarded.POST("/sessions", app.Handler.CreateSession)
		guarded.GET("/sessions", app.Handler.ListSessions)

		// interview routes
		guarded.GET("/interview/:id", app.Handler.InterviewPage)
		guarded.POST("/interview/:id/questions/:qid/text", app.Handler.SubmitTextAnswer)
		guarded.POST("/interview/:id/questions/:qid/audio", app.Handler.SubmitAudioAnswer)
		guarded.POST("/interview/:id/report", app.Handler.GenerateReportFromInterview)

		// report routes
		guarded.GET("/report/:id", app.Handler.ReportPage)
		guarded.POST("/report/:id", app.Handler.GenerateReport)
	}

	r.NoRoute(app.Handler.NotFound)
	return r
}
