package model

type AnswerType string

// AnswerTypeText marks a typed answer. Audio answers are created by the
// upload endpoint instead.
const AnswerTypeText AnswerType = "text"

// Analytics are the per-answer metrics computed by the backend. Display only.
type Analytics struct {
	WPM            float64 `json:"wpm"`
	FillerRatio    float64 `json:"filler_ratio"`
	KeywordHitRate float64 `json:"keyword_hit_rate"`
	ClarityScore   float64 `json:"clarity_score"`
	CoherenceScore float64 `json:"coherence_score"`
	Sentiment      string  `json:"sentiment,omitempty"`
}

type AnswerReq struct {
	QuestionID  int64      `json:"question_id"`
	Type        AnswerType `json:"type"`
	Transcript  string     `json:"transcript"`
	DurationSec float64    `json:"duration_sec"`
}

type AnswerRes struct {
	AnswerID  int64      `json:"answer_id,omitempty"`
	Analytics *Analytics `json:"analytics"`
}

type AudioRes struct {
	AnswerID    int64      `json:"answer_id,omitempty"`
	DurationSec float64    `json:"duration_sec,omitempty"`
	Transcript  string     `json:"transcript"`
	Analytics   *Analytics `json:"analytics"`
	File        string     `json:"file,omitempty"`
}
