package workflow

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/BY1502/ai-interview-service/pkg/model"
	"github.com/google/uuid"
)

// AnswerState is the answer-in-progress of one question during one visit.
//
// Issued counts submissions started for the question and Applied is the
// sequence number of the newest response merged in. A response whose sequence
// is not newer than Applied is stale and dropped, so the last submitted answer
// wins even when responses arrive out of order.
type AnswerState struct {
	Draft     string           `json:"draft"`
	Analytics *model.Analytics `json:"analytics,omitempty"`
	Issued    uint64           `json:"issued"`
	Applied   uint64           `json:"applied"`
	Error     string           `json:"error,omitempty"`
}

// Pending reports whether a submission is still outstanding.
func (a *AnswerState) Pending() bool {
	return a.Issued > a.Applied && a.Error == ""
}

// Workspace is the answer state of one interview visit. A new visit starts
// empty; nothing in it outlives the visit.
type Workspace struct {
	VisitID   string                 `json:"visit_id"`
	ClientID  string                 `json:"client_id"`
	SessionID int64                  `json:"session_id"`
	Questions []int64                `json:"questions"`
	Answers   map[int64]*AnswerState `json:"answers"`
	CreatedAt time.Time              `json:"created_at"`
}

func NewWorkspace(clientID string, s *model.Session) *Workspace {
	qids := make([]int64, 0, len(s.Questions))
	for _, q := range s.Questions {
		qids = append(qids, q.ID)
	}
	return &Workspace{
		VisitID:   uuid.NewString(),
		ClientID:  clientID,
		SessionID: s.ID,
		Questions: qids,
		Answers:   map[int64]*AnswerState{},
		CreatedAt: time.Now().UTC(),
	}
}

func (w *Workspace) owns(clientID string, sessionID int64) bool {
	return w.ClientID == clientID && w.SessionID == sessionID
}

// Answer returns the state for qid, creating it on first use.
func (w *Workspace) Answer(qid int64) *AnswerState {
	if w.Answers == nil {
		w.Answers = map[int64]*AnswerState{}
	}
	a, ok := w.Answers[qid]
	if !ok {
		a = &AnswerState{}
		w.Answers[qid] = a
	}
	return a
}

func (w *Workspace) SetDraft(qid int64, text string) {
	w.Answer(qid).Draft = text
}

// Begin starts a submission for qid and returns its sequence number.
func (w *Workspace) Begin(qid int64) uint64 {
	a := w.Answer(qid)
	a.Issued++
	a.Error = ""
	return a.Issued
}

func (w *Workspace) apply(qid int64, seq uint64, fn func(a *AnswerState)) bool {
	a := w.Answer(qid)
	if seq <= a.Applied {
		return false
	}
	a.Applied = seq
	a.Error = ""
	fn(a)
	return true
}

// ApplyText merges text-answer analytics. The draft stays as typed.
func (w *Workspace) ApplyText(qid int64, seq uint64, analytics *model.Analytics) bool {
	return w.apply(qid, seq, func(a *AnswerState) {
		a.Analytics = analytics
	})
}

// ApplyAudio replaces the draft with the server transcript and merges the
// analytics.
func (w *Workspace) ApplyAudio(qid int64, seq uint64, transcript string, analytics *model.Analytics) bool {
	return w.apply(qid, seq, func(a *AnswerState) {
		a.Draft = transcript
		a.Analytics = analytics
	})
}

// Fail records msg for the newest submission of qid. Draft and analytics are
// left untouched.
func (w *Workspace) Fail(qid int64, seq uint64, msg string) bool {
	a := w.Answer(qid)
	if seq <= a.Applied || seq != a.Issued {
		return false
	}
	a.Error = msg
	return true
}

// WorkspaceStore keeps workspaces between the requests of one visit.
type WorkspaceStore interface {
	Create(ctx context.Context, ws *Workspace) error
	// Get returns ErrVisitNotFound for unknown or expired visits.
	Get(ctx context.Context, visitID string) (*Workspace, error)
	// Update applies fn atomically and returns the stored result. When fn
	// fails nothing is written.
	Update(ctx context.Context, visitID string, fn func(ws *Workspace) error) (*Workspace, error)
}

type InterviewOptions struct {
	// AnswerDurationSec is sent with text answers; there is no timer.
	AnswerDurationSec float64
	AudioLanguage     string
}

// Upload is one selected audio file.
type Upload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

type Interview struct {
	backend Backend
	store   WorkspaceStore
	opts    InterviewOptions
}

func NewInterview(b Backend, store WorkspaceStore, opts InterviewOptions) *Interview {
	return &Interview{backend: b, store: store, opts: opts}
}

type InterviewView struct {
	Session   *model.Session
	Workspace *Workspace
}

// Open loads the session and attaches the visit's workspace. An empty,
// unknown, foreign or expired visitID starts a new visit. A failed load is
// final for the visit.
func (iv *Interview) Open(ctx context.Context, clientID string, sessionID int64, visitID string) (*InterviewView, error) {
	s, err := iv.backend.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %d: %w", sessionID, err)
	}

	if visitID != "" {
		ws, err := iv.store.Get(ctx, visitID)
		if err == nil && ws.owns(clientID, sessionID) {
			return &InterviewView{Session: s, Workspace: ws}, nil
		}
	}

	ws := NewWorkspace(clientID, s)
	if err := iv.store.Create(ctx, ws); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &InterviewView{Session: s, Workspace: ws}, nil
}

// Submission addresses one question of one visit.
type Submission struct {
	ClientID   string
	SessionID  int64
	VisitID    string
	QuestionID int64
}

// begin stores draft (when non-nil) and, unless the submission is rejected,
// issues a sequence number for it. A rejection is recorded on the question
// like any other failure.
func (iv *Interview) begin(ctx context.Context, sub Submission, draft *string, check func() error) (uint64, *AnswerState, error) {
	var seq uint64
	var rejected error
	ws, err := iv.store.Update(ctx, sub.VisitID, func(ws *Workspace) error {
		if !ws.owns(sub.ClientID, sub.SessionID) {
			return ErrVisitNotFound
		}
		if !slices.Contains(ws.Questions, sub.QuestionID) {
			return ErrUnknownQuestion
		}
		if draft != nil {
			ws.SetDraft(sub.QuestionID, *draft)
		}
		if rejected = check(); rejected != nil {
			ws.Answer(sub.QuestionID).Error = Describe(rejected)
			return nil
		}
		seq = ws.Begin(sub.QuestionID)
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	state := *ws.Answer(sub.QuestionID)
	if rejected != nil {
		return 0, &state, rejected
	}
	return seq, &state, nil
}

func (iv *Interview) finish(ctx context.Context, sub Submission, seq uint64, callErr error, apply func(ws *Workspace)) (*AnswerState, error) {
	ws, err := iv.store.Update(ctx, sub.VisitID, func(ws *Workspace) error {
		if callErr != nil {
			ws.Fail(sub.QuestionID, seq, Describe(callErr))
			return nil
		}
		apply(ws)
		return nil
	})
	if err != nil {
		if callErr != nil {
			return nil, callErr
		}
		return nil, err
	}
	state := *ws.Answer(sub.QuestionID)
	return &state, callErr
}

// SubmitText sends the draft as a text answer. A blank draft is kept but
// never sent.
func (iv *Interview) SubmitText(ctx context.Context, sub Submission, draft string) (*AnswerState, error) {
	seq, state, err := iv.begin(ctx, sub, &draft, func() error {
		if strings.TrimSpace(draft) == "" {
			return ErrEmptyAnswer
		}
		return nil
	})
	if err != nil {
		return state, err
	}

	res, callErr := iv.backend.SubmitAnswer(ctx, model.AnswerReq{
		QuestionID:  sub.QuestionID,
		Type:        model.AnswerTypeText,
		Transcript:  draft,
		DurationSec: iv.opts.AnswerDurationSec,
	})
	if callErr != nil {
		callErr = fmt.Errorf("submit answer: %w", callErr)
	}
	return iv.finish(ctx, sub, seq, callErr, func(ws *Workspace) {
		ws.ApplyText(sub.QuestionID, seq, res.Analytics)
	})
}

// SubmitAudio uploads one audio file; the returned transcript becomes the
// draft.
func (iv *Interview) SubmitAudio(ctx context.Context, sub Submission, up Upload) (*AnswerState, error) {
	seq, state, err := iv.begin(ctx, sub, nil, func() error {
		if up.Body == nil || up.Size <= 0 {
			return ErrNoAudio
		}
		return nil
	})
	if err != nil {
		return state, err
	}

	filename := up.Filename
	if filename == "" {
		filename = "answer.wav"
	}
	res, callErr := iv.backend.UploadAudio(ctx, sub.QuestionID, iv.opts.AudioLanguage, filename, up.Body)
	if callErr != nil {
		callErr = fmt.Errorf("upload audio: %w", callErr)
	}
	return iv.finish(ctx, sub, seq, callErr, func(ws *Workspace) {
		ws.ApplyAudio(sub.QuestionID, seq, res.Transcript, res.Analytics)
	})
}

// GenerateReport may run however many questions were answered.
func (iv *Interview) GenerateReport(ctx context.Context, sessionID int64) (Transition, error) {
	if _, err := iv.backend.CreateReport(ctx, sessionID); err != nil {
		return Transition{}, fmt.Errorf("generate report: %w", err)
	}
	return Transition{Redirect: ReportPath(sessionID)}, nil
}
