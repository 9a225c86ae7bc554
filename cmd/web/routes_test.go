package main

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BY1502/ai-interview-service/internal/auth"
	"github.com/BY1502/ai-interview-service/internal/config"
	"github.com/BY1502/ai-interview-service/internal/handler"
	"github.com/BY1502/ai-interview-service/internal/store"
	"github.com/BY1502/ai-interview-service/pkg/model"
	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// fakeBackend is an in-process interview backend with one user and one
// session.
type fakeBackend struct {
	mu           sync.Mutex
	createCalls  int
	createdStack []string
	reportReady  bool
	reportFails  bool
	lastCompany  string
	audio        struct{ questionID, language, filename, data string }
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
	authed := func(r *http.Request) bool {
		ck, err := r.Cookie("access_token")
		return err == nil && ck.Value == "tok"
	}

	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds model.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Email != "a@b.c" || creds.Password != "pw" {
			writeJSON(w, http.StatusUnauthorized, `{"detail":"Invalid credentials"}`)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "tok", Path: "/", HttpOnly: true})
		writeJSON(w, http.StatusOK, `{"ok":true}`)
	})
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"detail":"boom"}`)
	})
	mux.HandleFunc("/api/me", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			writeJSON(w, http.StatusUnauthorized, `{"detail":"Not authenticated"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"id":1,"email":"a@b.c"}`)
	})
	mux.HandleFunc("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		var req model.CreateSessionReq
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.createCalls++
		f.createdStack = req.Stack
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, `{"session_id":1,"questions":[]}`)
	})
	mux.HandleFunc("/api/sessions/mine", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.lastCompany = r.URL.Query().Get("company")
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, `[]`)
	})
	mux.HandleFunc("/api/sessions/1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":1,"company":"Acme","role":"backend","job_title":"Backend Engineer",
			"level":"junior","difficulty":"medium","stack":["Python","FastAPI"],"questions":[
			{"id":11,"text":"What is an index?","rubric_keywords":"b-tree, page"},
			{"id":12,"text":"Explain MVCC.","rubric_keywords":["snapshot"]},
			{"id":13,"text":"How do you shard?","rubric_keywords":""}]}`)
	})
	mux.HandleFunc("/api/sessions/1/report", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.Method == http.MethodPost && f.reportFails {
			writeJSON(w, http.StatusBadRequest, `{"detail":"No answers found for this session"}`)
			return
		}
		if r.Method == http.MethodPost {
			f.reportReady = true
			writeJSON(w, http.StatusOK, `{"session_id":1,"report_id":5,"total_score":82}`)
			return
		}
		if !f.reportReady {
			writeJSON(w, http.StatusNotFound, `{"detail":"Report not found"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"session_id":1,"total_score":82,
			"summary_md":"## Strengths\n\nClear answers.\n\n<script>alert(1)</script>",
			"suggestions_md":"- Quantify impact","created_at":"2024-05-01T10:00:00"}`)
	})
	mux.HandleFunc("/api/uploads/audio", func(w http.ResponseWriter, r *http.Request) {
		file, hdr, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, `{"detail":"file required"}`)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		f.mu.Lock()
		f.audio.questionID = r.FormValue("question_id")
		f.audio.language = r.FormValue("language")
		f.audio.filename = hdr.Filename
		f.audio.data = string(data)
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, `{"answer_id":4,"duration_sec":3.5,"transcript":"spoken words","analytics":{"wpm":98,"filler_ratio":0.2,"keyword_hit_rate":0,"clarity_score":6,"coherence_score":6}}`)
	})
	mux.HandleFunc("/api/answers", func(w http.ResponseWriter, r *http.Request) {
		var req model.AnswerReq
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Type != model.AnswerTypeText || req.Transcript == "" {
			writeJSON(w, http.StatusUnprocessableEntity, `{"detail":"bad answer"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"answer_id":3,"analytics":{"wpm":120.5,"filler_ratio":0.1,"keyword_hit_rate":0.5,"clarity_score":7,"coherence_score":8}}`)
	})
	return mux
}

type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newTestApp(t *testing.T) (*browser, *fakeBackend) {
	t.Helper()
	fb := &fakeBackend{}
	backend := httptest.NewServer(fb.handler())
	t.Cleanup(backend.Close)

	templates, err := handler.Templates()
	if err != nil {
		t.Fatalf("Templates() error = %v", err)
	}
	cfg := &config.Config{
		Env: "test",
		Backend: config.BackendConfig{
			DefaultURL:        backend.URL,
			AuthPrefix:        "/api",
			AnswerDurationSec: 60,
			AudioLanguage:     "ko",
			UploadMaxBytes:    1 << 20,
		},
	}
	app := &application{
		Logger:    zap.NewNop(),
		Config:    cfg,
		Tokens:    auth.NewTokenMaker(testSecret, time.Hour),
		Templates: templates,
		Handler: &handler.Handler{
			Logger:     zap.NewNop(),
			Clients:    store.NewMemoryClients(time.Hour),
			Workspaces: store.NewMemoryWorkspaces(time.Hour),
			Prefs:      store.NewMemoryPreferences(),
			HTTPClient: backend.Client(),
			Backend:    cfg.Backend,
			Forms:      config.DefaultFormOptions(),
		},
	}
	srv := httptest.NewServer(app.routes())
	t.Cleanup(srv.Close)

	jar, _ := cookiejar.New(nil)
	return &browser{
		t:    t,
		base: srv.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, fb
}

func (b *browser) do(req *http.Request) *http.Response {
	b.t.Helper()
	resp, err := b.client.Do(req)
	if err != nil {
		b.t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	b.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (b *browser) get(path string) *http.Response {
	b.t.Helper()
	req, _ := http.NewRequest(http.MethodGet, b.base+path, nil)
	return b.do(req)
}

func (b *browser) post(path string, form url.Values, accept string) *http.Response {
	b.t.Helper()
	req, _ := http.NewRequest(http.MethodPost, b.base+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	return b.do(req)
}

func (b *browser) upload(path string, fields map[string]string, filename string, data []byte, accept string) *http.Response {
	b.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			b.t.Fatal(err)
		}
		part.Write(data)
	}
	mw.Close()
	req, _ := http.NewRequest(http.MethodPost, b.base+path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	return b.do(req)
}

func (b *browser) page(resp *http.Response, wantStatus int) *goquery.Document {
	b.t.Helper()
	if resp.StatusCode != wantStatus {
		b.t.Fatalf("%s: status = %d, want %d", resp.Request.URL.Path, resp.StatusCode, wantStatus)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		b.t.Fatalf("parse page: %v", err)
	}
	return doc
}

func expectRedirect(t *testing.T, resp *http.Response, want string) {
	t.Helper()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("%s %s: status = %d, want 303", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != want {
		t.Fatalf("%s %s: Location = %q, want %q", resp.Request.Method, resp.Request.URL.Path, got, want)
	}
}

func login(t *testing.T, b *browser) {
	t.Helper()
	resp := b.post("/login", url.Values{"email": {"a@b.c"}, "password": {"pw"}}, "")
	expectRedirect(t, resp, "/")
}

func TestRoutes_LoginThenCreateSession(t *testing.T) {
	b, fb := newTestApp(t)

	expectRedirect(t, b.get("/"), "/login")

	doc := b.page(b.get("/login"), http.StatusOK)
	if doc.Find("#login-form").Length() != 1 {
		t.Fatal("login form not rendered")
	}

	doc = b.page(b.post("/login", url.Values{"email": {"a@b.c"}, "password": {"wrong"}}, ""), http.StatusUnauthorized)
	if got := doc.Find("#notice").Text(); got != "Invalid credentials" {
		t.Errorf("login notice = %q", got)
	}

	login(t, b)
	doc = b.page(b.get("/"), http.StatusOK)
	if doc.Find("#session-form").Length() != 1 {
		t.Fatal("session form not rendered")
	}
	if got := doc.Find("#who").Text(); got != "a@b.c" {
		t.Errorf("signed-in email = %q", got)
	}
	if v, _ := doc.Find("#job_title").Attr("value"); v != "Backend Engineer" {
		t.Errorf("default job title = %q", v)
	}

	expectRedirect(t, b.get("/login"), "/")

	form := url.Values{
		"company":    {"Acme"},
		"role":       {"backend"},
		"job_title":  {""},
		"level":      {"junior"},
		"difficulty": {"medium"},
		"stack":      {"Python, FastAPI"},
	}
	doc = b.page(b.post("/sessions", form, ""), http.StatusUnprocessableEntity)
	if doc.Find(`[data-field="job_title"]`).Length() != 1 {
		t.Error("job_title message missing")
	}
	if v, _ := doc.Find("#company").Attr("value"); v != "Acme" {
		t.Errorf("company not kept: %q", v)
	}
	if fb.createCalls != 0 {
		t.Fatalf("invalid form reached the backend %d times", fb.createCalls)
	}

	form.Set("job_title", "Backend Engineer")
	expectRedirect(t, b.post("/sessions", form, ""), "/interview/1")
	if !reflect.DeepEqual(fb.createdStack, []string{"Python", "FastAPI"}) {
		t.Errorf("stack = %#v", fb.createdStack)
	}
}

func TestRoutes_InterviewAnswers(t *testing.T) {
	b, _ := newTestApp(t)
	login(t, b)

	doc := b.page(b.get("/interview/1"), http.StatusOK)
	if n := doc.Find(".question").Length(); n != 3 {
		t.Fatalf("question cards = %d, want 3", n)
	}
	visit, _ := doc.Find(`#q-11 input[name="visit"]`).First().Attr("value")
	if visit == "" {
		t.Fatal("visit id missing")
	}

	resp := b.post("/interview/1/questions/11/text", url.Values{"visit": {visit}, "draft": {"B-tree pages"}}, "application/json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("json answer status = %d", resp.StatusCode)
	}
	var env struct {
		Success bool `json:"success"`
		Data    struct {
			Draft     string           `json:"draft"`
			Analytics *model.Analytics `json:"analytics"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	if !env.Success || env.Data.Draft != "B-tree pages" || env.Data.Analytics == nil || env.Data.Analytics.WPM != 120.5 {
		t.Errorf("answer envelope = %+v", env)
	}

	expectRedirect(t,
		b.post("/interview/1/questions/12/text", url.Values{"visit": {visit}, "draft": {"  "}}, ""),
		"/interview/1?visit="+url.QueryEscape(visit)+"#q-12")

	doc = b.page(b.get("/interview/1?visit="+url.QueryEscape(visit)), http.StatusOK)
	if got := doc.Find("#q-11 textarea").Text(); got != "B-tree pages" {
		t.Errorf("draft of q11 = %q", got)
	}
	if got := strings.TrimSpace(doc.Find("#q-11 .wpm").Text()); got != "120.5" {
		t.Errorf("wpm of q11 = %q", got)
	}
	if got := doc.Find("#q-12 .answer-error").Text(); got == "" {
		t.Error("blank answer notice missing on q12")
	}
	if doc.Find("#q-13 .analytics dt").Length() != 0 {
		t.Error("unanswered question shows analytics")
	}

	doc = b.page(b.get("/interview/1"), http.StatusOK)
	if got := doc.Find("#q-11 textarea").Text(); got != "" {
		t.Errorf("fresh visit kept draft %q", got)
	}

	resp = b.post("/interview/1/questions/99/text", url.Values{"visit": {visit}, "draft": {"x"}}, "application/json")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("foreign question status = %d, want 404", resp.StatusCode)
	}
}

func TestRoutes_AudioAnswerAndFailedReport(t *testing.T) {
	b, fb := newTestApp(t)
	login(t, b)

	doc := b.page(b.get("/interview/1"), http.StatusOK)
	visit, _ := doc.Find(`#q-11 input[name="visit"]`).First().Attr("value")
	expectRedirect(t,
		b.post("/interview/1/questions/11/text", url.Values{"visit": {visit}, "draft": {"B-tree pages"}}, ""),
		"/interview/1?visit="+url.QueryEscape(visit)+"#q-11")

	resp := b.upload("/interview/1/questions/12/audio", map[string]string{"visit": visit}, "answer.webm", []byte("RIFFdata"), "application/json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("audio answer status = %d", resp.StatusCode)
	}
	var env struct {
		Success bool `json:"success"`
		Data    struct {
			Draft     string           `json:"draft"`
			Analytics *model.Analytics `json:"analytics"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	if !env.Success || env.Data.Draft != "spoken words" || env.Data.Analytics == nil || env.Data.Analytics.WPM != 98 {
		t.Errorf("audio envelope = %+v", env)
	}
	fb.mu.Lock()
	got := fb.audio
	fb.mu.Unlock()
	if got.questionID != "12" || got.language != "ko" || got.filename != "answer.webm" || got.data != "RIFFdata" {
		t.Errorf("backend received %+v", got)
	}

	resp = b.upload("/interview/1/questions/13/audio", map[string]string{"visit": visit}, "", nil, "")
	expectRedirect(t, resp, "/interview/1?visit="+url.QueryEscape(visit)+"#q-13")

	resp = b.upload("/interview/1/questions/13/audio", map[string]string{"visit": visit}, "long.wav", bytes.Repeat([]byte("a"), 2<<20), "application/json")
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("oversize upload status = %d, want 413", resp.StatusCode)
	}

	fb.mu.Lock()
	fb.reportFails = true
	fb.mu.Unlock()
	doc = b.page(b.post("/interview/1/report", url.Values{"visit": {visit}}, ""), http.StatusUnprocessableEntity)
	if got := doc.Find("#notice").Text(); got != "No answers found for this session" {
		t.Errorf("report notice = %q", got)
	}
	if got := doc.Find("#q-11 textarea").Text(); got != "B-tree pages" {
		t.Errorf("draft of q11 after failed report = %q", got)
	}
	if got := doc.Find("#q-12 textarea").Text(); got != "spoken words" {
		t.Errorf("draft of q12 after failed report = %q", got)
	}
	if got := doc.Find("#q-13 .answer-error").Text(); got != "Choose an audio file first." {
		t.Errorf("q13 notice = %q", got)
	}
	if v, _ := doc.Find(`#report-form input[name="visit"]`).Attr("value"); v != visit {
		t.Errorf("visit after failed report = %q, want %q", v, visit)
	}
}

func TestRoutes_ReportAbsentThenGenerated(t *testing.T) {
	b, _ := newTestApp(t)
	login(t, b)

	doc := b.page(b.get("/report/1"), http.StatusOK)
	if doc.Find("#report-absent").Length() != 1 {
		t.Fatal("absent state not rendered")
	}

	expectRedirect(t, b.post("/report/1", nil, ""), "/report/1")

	doc = b.page(b.get("/report/1"), http.StatusOK)
	if got := doc.Find("#total-score").Text(); got != "82" {
		t.Errorf("total score = %q", got)
	}
	if got := doc.Find("#summary h2").Text(); got != "Strengths" {
		t.Errorf("summary heading = %q", got)
	}
	if doc.Find("#summary script").Length() != 0 {
		t.Error("raw HTML from the report was rendered")
	}
	if got := doc.Find("#suggestions li").Text(); got != "Quantify impact" {
		t.Errorf("suggestion = %q", got)
	}
}

func TestRoutes_SessionsEmptyFilter(t *testing.T) {
	b, fb := newTestApp(t)
	login(t, b)

	doc := b.page(b.get("/sessions?company=%20Initech%20"), http.StatusOK)
	if doc.Find("#sessions-empty").Length() != 1 {
		t.Error("empty state not rendered")
	}
	if doc.Find("#notice").Length() != 0 {
		t.Error("empty result rendered as an error")
	}
	if fb.lastCompany != "Initech" {
		t.Errorf("company filter = %q", fb.lastCompany)
	}
}

func TestRoutes_LogoutSurvivesBackendFailure(t *testing.T) {
	b, _ := newTestApp(t)
	login(t, b)

	expectRedirect(t, b.post("/logout", nil, ""), "/login")
	expectRedirect(t, b.get("/"), "/login")
}

func TestRoutes_TamperedClientCookie(t *testing.T) {
	b, _ := newTestApp(t)
	login(t, b)

	u, _ := url.Parse(b.base)
	var original string
	for _, ck := range b.client.Jar.Cookies(u) {
		if ck.Name == clientCookie {
			original = ck.Value
		}
	}
	if original == "" {
		t.Fatal("client cookie not set")
	}
	b.client.Jar.SetCookies(u, []*http.Cookie{{Name: clientCookie, Value: original + "x", Path: "/"}})

	resp := b.get("/")
	expectRedirect(t, resp, "/login")
	var reissued bool
	for _, ck := range resp.Cookies() {
		if ck.Name == clientCookie && ck.Value != "" && ck.Value != original {
			reissued = true
		}
	}
	if !reissued {
		t.Error("tampered cookie did not yield a fresh client")
	}
}

func TestRoutes_Healthz(t *testing.T) {
	b, _ := newTestApp(t)
	resp := b.get("/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}
}
