package interviewapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BY1502/ai-interview-service/pkg/model"
)

// Client talks to the interview backend on behalf of one browser client. The
// backend authenticates with cookies; the client replays the cookies it was
// given and folds every Set-Cookie answer back into them, so the caller can
// persist Credentials() after use.
type Client struct {
	base  string
	paths Paths
	http  *http.Client

	mu    sync.Mutex
	creds map[string]string
}

func NewClient(baseURL string, paths Paths, httpClient *http.Client, creds map[string]string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		base:  strings.TrimRight(baseURL, "/"),
		paths: paths,
		http:  httpClient,
		creds: make(map[string]string, len(creds)),
	}
	for k, v := range creds {
		c.creds[k] = v
	}
	return c
}

// Credentials returns a copy of the cookies the backend currently expects.
func (c *Client) Credentials() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.creds))
	for k, v := range c.creds {
		out[k] = v
	}
	return out
}

func (c *Client) ClearCredentials() {
	c.mu.Lock()
	c.creds = map[string]string{}
	c.mu.Unlock()
}

func (c *Client) Signup(ctx context.Context, creds model.Credentials) error {
	return c.doJSON(ctx, http.MethodPost, c.paths.Signup(), creds, nil)
}

func (c *Client) Login(ctx context.Context, creds model.Credentials) error {
	return c.doJSON(ctx, http.MethodPost, c.paths.Login(), creds, nil)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, c.paths.Logout(), struct{}{}, nil)
}

// Me probes the current identity. A 2xx without an identity counts as
// unauthorized.
func (c *Client) Me(ctx context.Context) (*model.Identity, error) {
	var me *model.Identity
	if err := c.doJSON(ctx, http.MethodGet, c.paths.Me(), nil, &me); err != nil {
		return nil, err
	}
	if me == nil || (me.ID == 0 && me.Email == "") {
		return nil, fmt.Errorf("empty identity: %w", ErrUnauthorized)
	}
	return me, nil
}

func (c *Client) CreateSession(ctx context.Context, req model.CreateSessionReq) (*model.CreateSessionRes, error) {
	var res model.CreateSessionRes
	if err := c.doJSON(ctx, http.MethodPost, c.paths.Sessions(), req, &res); err != nil {
		return nil, err
	}
	if res.SessionID == 0 {
		return nil, errors.New("create session: backend returned no session id")
	}
	return &res, nil
}

func (c *Client) GetSession(ctx context.Context, id int64) (*model.Session, error) {
	var s model.Session
	if err := c.doJSON(ctx, http.MethodGet, c.paths.Session(id), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessions lists the caller's sessions, filtered by company when it is
// not empty.
func (c *Client) ListSessions(ctx context.Context, company string) ([]model.SessionSummary, error) {
	path := c.paths.MySessions()
	if company != "" {
		path += "?" + url.Values{"company": {company}}.Encode()
	}
	var out []model.SessionSummary
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SubmitAnswer(ctx context.Context, req model.AnswerReq) (*model.AnswerRes, error) {
	var res model.AnswerRes
	if err := c.doJSON(ctx, http.MethodPost, c.paths.Answers(), req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// UploadAudio sends one audio file as multipart form data.
func (c *Client) UploadAudio(ctx context.Context, questionID int64, language, filename string, file io.Reader) (*model.AudioRes, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("question_id", strconv.FormatInt(questionID, 10)); err != nil {
		return nil, fmt.Errorf("write question_id: %w", err)
	}
	if err := mw.WriteField("language", language); err != nil {
		return nil, fmt.Errorf("write language: %w", err)
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy audio: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, c.paths.AudioUpload(), &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	var res model.AudioRes
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode audio upload: %w", err)
	}
	return &res, nil
}

// CreateReport asks the backend to (re)generate the report. Backends that
// only acknowledge the generation are followed up with a read.
func (c *Client) CreateReport(ctx context.Context, sessionID int64) (*model.Report, error) {
	body, err := c.do(ctx, http.MethodPost, c.paths.Report(sessionID), bytes.NewReader([]byte("{}")), "application/json")
	if err != nil {
		return nil, err
	}
	ack, err := decodeReport(body)
	if err == nil && ack.HasBody() {
		return ack, nil
	}
	full, getErr := c.GetReport(ctx, sessionID)
	if getErr != nil {
		if ack != nil {
			// generated, but the read-back failed; the score is all we have
			return ack, nil
		}
		return nil, getErr
	}
	return full, nil
}

// GetReport returns ErrNotFound both for a 404 and for an empty body; either
// way the report has not been generated yet.
func (c *Client) GetReport(ctx context.Context, sessionID int64) (*model.Report, error) {
	body, err := c.do(ctx, http.MethodGet, c.paths.Report(sessionID), nil, "")
	if err != nil {
		return nil, err
	}
	return decodeReport(body)
}

func decodeReport(body []byte) (*model.Report, error) {
	switch strings.TrimSpace(string(body)) {
	case "", "null", "{}":
		return nil, fmt.Errorf("empty report: %w", ErrNotFound)
	}
	var rep model.Report
	if err := json.Unmarshal(body, &rep); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &rep, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	resBody, err := c.do(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resBody, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	c.mu.Lock()
	for name, value := range c.creds {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	c.mu.Unlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.mergeCookies(resp.Cookies())

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, b)
	}
	return b, nil
}

func (c *Client) mergeCookies(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ck := range cookies {
		expired := ck.MaxAge < 0 || (!ck.Expires.IsZero() && ck.Expires.Before(now))
		if expired || ck.Value == "" {
			delete(c.creds, ck.Name)
			continue
		}
		c.creds[ck.Name] = ck.Value
	}
}
