package interviewapi

import "fmt"

// Paths are the backend routes. The auth group lives under a prefix that
// differs between backend deployments ("/api/auth/login" or "/auth/login").
type Paths struct {
	AuthPrefix string
}

func (p Paths) Signup() string { return p.AuthPrefix + "/auth/signup" }
func (p Paths) Login() string  { return p.AuthPrefix + "/auth/login" }
func (p Paths) Logout() string { return p.AuthPrefix + "/auth/logout" }
func (p Paths) Me() string     { return p.AuthPrefix + "/me" }

func (Paths) Sessions() string    { return "/api/sessions" }
func (Paths) MySessions() string  { return "/api/sessions/mine" }
func (Paths) Answers() string     { return "/api/answers" }
func (Paths) AudioUpload() string { return "/api/uploads/audio" }

func (Paths) Session(id int64) string {
	return fmt.Sprintf("/api/sessions/%d", id)
}

func (Paths) Report(sessionID int64) string {
	return fmt.Sprintf("/api/sessions/%d/report", sessionID)
}
