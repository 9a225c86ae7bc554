package model

// Session is one practice interview with its generated questions.
type Session struct {
	ID         int64      `json:"id"`
	Company    string     `json:"company"`
	Role       string     `json:"role"`
	JobTitle   string     `json:"job_title"`
	Level      string     `json:"level"`
	Difficulty string     `json:"difficulty"`
	Stack      []string   `json:"stack,omitempty"`
	CreatedAt  string     `json:"created_at,omitempty"`
	Questions  []Question `json:"questions"`
}

type SessionSummary struct {
	ID         int64  `json:"id"`
	Company    string `json:"company"`
	Role       string `json:"role"`
	JobTitle   string `json:"job_title"`
	Level      string `json:"level"`
	Difficulty string `json:"difficulty"`
	CreatedAt  string `json:"created_at"`
}

type CreateSessionReq struct {
	Company    string   `json:"company"`
	Role       string   `json:"role"`
	JobTitle   string   `json:"job_title"`
	Level      string   `json:"level"`
	Difficulty string   `json:"difficulty"`
	Stack      []string `json:"stack"`
}

type CreateSessionRes struct {
	SessionID int64      `json:"session_id"`
	Questions []Question `json:"questions,omitempty"`
}
