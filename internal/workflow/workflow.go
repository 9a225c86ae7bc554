// Package workflow holds the screen logic of the interview practice front-end:
// the auth gate, session creation, the per-visit interview workspace, the
// report viewer and the sessions list. It talks to the interview backend only
// through Backend and knows nothing about HTTP rendering.
package workflow

import (
	"context"
	"fmt"
	"io"

	"github.com/BY1502/ai-interview-service/pkg/model"
)

// Backend is the subset of the interview backend the screens use.
type Backend interface {
	Signup(ctx context.Context, creds model.Credentials) error
	Login(ctx context.Context, creds model.Credentials) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*model.Identity, error)

	CreateSession(ctx context.Context, req model.CreateSessionReq) (*model.CreateSessionRes, error)
	GetSession(ctx context.Context, id int64) (*model.Session, error)
	ListSessions(ctx context.Context, company string) ([]model.SessionSummary, error)

	SubmitAnswer(ctx context.Context, req model.AnswerReq) (*model.AnswerRes, error)
	UploadAudio(ctx context.Context, questionID int64, language, filename string, file io.Reader) (*model.AudioRes, error)

	CreateReport(ctx context.Context, sessionID int64) (*model.Report, error)
	GetReport(ctx context.Context, sessionID int64) (*model.Report, error)
}

const (
	PathHome       = "/"
	PathNewSession = "/new"
	PathLogin      = "/login"
	PathSignup     = "/signup"
	PathLogout     = "/logout"
	PathSessions   = "/sessions"
	PathSettings   = "/settings"
)

func InterviewPath(sessionID int64) string {
	return fmt.Sprintf("/interview/%d", sessionID)
}

func ReportPath(sessionID int64) string {
	return fmt.Sprintf("/report/%d", sessionID)
}

// Transition is the navigation an operation ends with.
type Transition struct {
	Redirect string
}
