package workflow

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/BY1502/ai-interview-service/internal/config"
	"github.com/BY1502/ai-interview-service/pkg/model"
)

// SessionForm is the raw input of the session creation screen.
type SessionForm struct {
	Company    string `form:"company"`
	Role       string `form:"role"`
	JobTitle   string `form:"job_title"`
	Level      string `form:"level"`
	Difficulty string `form:"difficulty"`
	Stack      string `form:"stack"`
}

// NewSessionForm returns the form prefilled with the catalog defaults.
func NewSessionForm(opts *config.FormOptions) SessionForm {
	return SessionForm{
		Role:       opts.Defaults.Role,
		JobTitle:   opts.Defaults.JobTitle,
		Level:      opts.Defaults.Level,
		Difficulty: opts.Defaults.Difficulty,
		Stack:      opts.Defaults.Stack,
	}
}

func (f SessionForm) Validate(opts *config.FormOptions) error {
	verr := &ValidationError{}
	required := map[string]string{
		"role":       f.Role,
		"job_title":  f.JobTitle,
		"level":      f.Level,
		"difficulty": f.Difficulty,
	}
	if opts.RequireCompany {
		required["company"] = f.Company
	}
	for field, v := range required {
		if strings.TrimSpace(v) == "" {
			verr.add(field, "required")
		}
	}

	oneOf := func(field, v string, allowed []string) {
		v = strings.TrimSpace(v)
		if v != "" && len(allowed) > 0 && !slices.Contains(allowed, v) {
			verr.add(field, fmt.Sprintf("must be one of %s", strings.Join(allowed, ", ")))
		}
	}
	oneOf("role", f.Role, opts.Roles)
	oneOf("level", f.Level, opts.Levels)
	oneOf("difficulty", f.Difficulty, opts.Difficulties)

	return verr.orNil()
}

// Request builds the create-session payload.
func (f SessionForm) Request() model.CreateSessionReq {
	return model.CreateSessionReq{
		Company:    strings.TrimSpace(f.Company),
		Role:       strings.TrimSpace(f.Role),
		JobTitle:   strings.TrimSpace(f.JobTitle),
		Level:      strings.TrimSpace(f.Level),
		Difficulty: strings.TrimSpace(f.Difficulty),
		Stack:      NormalizeStack(f.Stack),
	}
}

// NormalizeStack splits "Python, FastAPI,," into ["Python" "FastAPI"].
func NormalizeStack(s string) []string {
	return model.SplitList(s)
}

type SessionCreator struct {
	backend Backend
	opts    *config.FormOptions
}

func NewSessionCreator(b Backend, opts *config.FormOptions) *SessionCreator {
	return &SessionCreator{backend: b, opts: opts}
}

// Create validates the form and, only when it passes, creates the session and
// navigates to its interview screen. The form is never modified.
func (c *SessionCreator) Create(ctx context.Context, f SessionForm) (Transition, error) {
	if err := f.Validate(c.opts); err != nil {
		return Transition{}, err
	}
	res, err := c.backend.CreateSession(ctx, f.Request())
	if err != nil {
		return Transition{}, fmt.Errorf("create session: %w", err)
	}
	return Transition{Redirect: InterviewPath(res.SessionID)}, nil
}
