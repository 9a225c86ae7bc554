package workflow

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/BY1502/ai-interview-service/internal/interviewapi"
	"github.com/BY1502/ai-interview-service/pkg/model"
)

// fakeBackend records calls; each hook defaults to a benign answer.
type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int

	signup        func(model.Credentials) error
	login         func(model.Credentials) error
	logout        func() error
	me            func() (*model.Identity, error)
	createSession func(model.CreateSessionReq) (*model.CreateSessionRes, error)
	getSession    func(int64) (*model.Session, error)
	listSessions  func(string) ([]model.SessionSummary, error)
	submitAnswer  func(model.AnswerReq) (*model.AnswerRes, error)
	uploadAudio   func(int64, string, string, io.Reader) (*model.AudioRes, error)
	createReport  func(int64) (*model.Report, error)
	getReport     func(int64) (*model.Report, error)
}

func (f *fakeBackend) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeBackend) Signup(_ context.Context, c model.Credentials) error {
	f.record("signup")
	if f.signup != nil {
		return f.signup(c)
	}
	return nil
}

func (f *fakeBackend) Login(_ context.Context, c model.Credentials) error {
	f.record("login")
	if f.login != nil {
		return f.login(c)
	}
	return nil
}

func (f *fakeBackend) Logout(context.Context) error {
	f.record("logout")
	if f.logout != nil {
		return f.logout()
	}
	return nil
}

func (f *fakeBackend) Me(context.Context) (*model.Identity, error) {
	f.record("me")
	if f.me != nil {
		return f.me()
	}
	return nil, unauthorized()
}

func (f *fakeBackend) CreateSession(_ context.Context, req model.CreateSessionReq) (*model.CreateSessionRes, error) {
	f.record("createSession")
	if f.createSession != nil {
		return f.createSession(req)
	}
	return &model.CreateSessionRes{SessionID: 1}, nil
}

func (f *fakeBackend) GetSession(_ context.Context, id int64) (*model.Session, error) {
	f.record("getSession")
	if f.getSession != nil {
		return f.getSession(id)
	}
	return testSession(id), nil
}

func (f *fakeBackend) ListSessions(_ context.Context, company string) ([]model.SessionSummary, error) {
	f.record("listSessions")
	if f.listSessions != nil {
		return f.listSessions(company)
	}
	return nil, nil
}

func (f *fakeBackend) SubmitAnswer(_ context.Context, req model.AnswerReq) (*model.AnswerRes, error) {
	f.record("submitAnswer")
	if f.submitAnswer != nil {
		return f.submitAnswer(req)
	}
	return &model.AnswerRes{Analytics: &model.Analytics{WPM: 100}}, nil
}

func (f *fakeBackend) UploadAudio(_ context.Context, qid int64, lang, name string, r io.Reader) (*model.AudioRes, error) {
	f.record("uploadAudio")
	if f.uploadAudio != nil {
		return f.uploadAudio(qid, lang, name, r)
	}
	return &model.AudioRes{Transcript: "transcribed", Analytics: &model.Analytics{WPM: 90}}, nil
}

func (f *fakeBackend) CreateReport(_ context.Context, id int64) (*model.Report, error) {
	f.record("createReport")
	if f.createReport != nil {
		return f.createReport(id)
	}
	return &model.Report{SessionID: id, SummaryMD: "## ok"}, nil
}

func (f *fakeBackend) GetReport(_ context.Context, id int64) (*model.Report, error) {
	f.record("getReport")
	if f.getReport != nil {
		return f.getReport(id)
	}
	return nil, notFound()
}

func unauthorized() error {
	return &interviewapi.APIError{Status: http.StatusUnauthorized, Message: "unauthorized"}
}

func notFound() error {
	return &interviewapi.APIError{Status: http.StatusNotFound, Message: "Report not found"}
}

func testSession(id int64) *model.Session {
	return &model.Session{
		ID:         id,
		Company:    "Acme",
		Role:       "backend",
		JobTitle:   "Backend Engineer",
		Level:      "junior",
		Difficulty: "medium",
		Questions: []model.Question{
			{ID: 11, Text: "What is an index?"},
			{ID: 12, Text: "Explain MVCC."},
			{ID: 13, Text: "How do you shard?"},
		},
	}
}

// memWorkspaces is a minimal WorkspaceStore for tests.
type memWorkspaces struct {
	mu   sync.Mutex
	byID map[string]*Workspace
}

func newMemWorkspaces() *memWorkspaces {
	return &memWorkspaces{byID: map[string]*Workspace{}}
}

func (m *memWorkspaces) Create(_ context.Context, ws *Workspace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[ws.VisitID] = cloneWorkspace(ws)
	return nil
}

func (m *memWorkspaces) Get(_ context.Context, id string) (*Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.byID[id]
	if !ok {
		return nil, ErrVisitNotFound
	}
	return cloneWorkspace(ws), nil
}

func (m *memWorkspaces) Update(_ context.Context, id string, fn func(*Workspace) error) (*Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.byID[id]
	if !ok {
		return nil, ErrVisitNotFound
	}
	work := cloneWorkspace(ws)
	if err := fn(work); err != nil {
		return nil, err
	}
	m.byID[id] = work
	return cloneWorkspace(work), nil
}

func cloneWorkspace(ws *Workspace) *Workspace {
	out := *ws
	out.Questions = append([]int64(nil), ws.Questions...)
	out.Answers = make(map[int64]*AnswerState, len(ws.Answers))
	for k, v := range ws.Answers {
		a := *v
		out.Answers[k] = &a
	}
	return &out
}

var errBoom = errors.New("connection refused")
