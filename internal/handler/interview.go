package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/BY1502/ai-interview-service/internal/workflow"
	"github.com/BY1502/ai-interview-service/pkg"
	"github.com/BY1502/ai-interview-service/pkg/model"
	"github.com/BY1502/ai-interview-service/pkg/response"
	"github.com/gin-gonic/gin"
)

type questionCard struct {
	Question model.Question
	State    *workflow.AnswerState
}

type answerPayload struct {
	QuestionID int64            `json:"question_id"`
	Draft      string           `json:"draft"`
	Analytics  *model.Analytics `json:"analytics,omitempty"`
	Error      string           `json:"error,omitempty"`
}

func (h *Handler) interview(c *gin.Context) *workflow.Interview {
	return workflow.NewInterview(h.api(c), h.Workspaces, workflow.InterviewOptions{
		AnswerDurationSec: h.Backend.AnswerDurationSec,
		AudioLanguage:     h.Backend.AudioLanguage,
	})
}

// InterviewPage renders every question of the session with the answers of
// the current visit. Without a known visit id a fresh visit starts.
func (h *Handler) InterviewPage(c *gin.Context) {
	id, ok := pkg.ParseID(c.Param("id"))
	if !ok {
		h.NotFound(c)
		return
	}
	h.renderInterview(c, http.StatusOK, id, c.Query("visit"), "")
}

func (h *Handler) renderInterview(c *gin.Context, status int, sessionID int64, visitID, notice string) {
	view, err := h.interview(c).Open(c.Request.Context(), ClientFromContext(c).ClientID, sessionID, visitID)
	if err != nil {
		if workflow.IsUnauthorized(err) {
			h.signOut(c)
			h.redirect(c, workflow.PathLogin)
			return
		}
		h.logBackend(c, "load session failed", err, "session", sessionID)
		h.render(c, statusFor(err), "interview.html", gin.H{
			"Title":     "Interview",
			"SessionID": sessionID,
			"LoadError": workflow.Describe(err),
		})
		return
	}

	cards := make([]questionCard, 0, len(view.Session.Questions))
	for _, q := range view.Session.Questions {
		st := workflow.AnswerState{}
		if a, ok := view.Workspace.Answers[q.ID]; ok {
			st = *a
		}
		cards = append(cards, questionCard{Question: q, State: &st})
	}
	h.render(c, status, "interview.html", gin.H{
		"Title":     "Interview",
		"SessionID": sessionID,
		"Session":   view.Session,
		"VisitID":   view.Workspace.VisitID,
		"Cards":     cards,
		"Error":     notice,
	})
}

func (h *Handler) submission(c *gin.Context) (workflow.Submission, bool) {
	id, ok := pkg.ParseID(c.Param("id"))
	if !ok {
		return workflow.Submission{}, false
	}
	qid, ok := pkg.ParseID(c.Param("qid"))
	if !ok {
		return workflow.Submission{}, false
	}
	return workflow.Submission{
		ClientID:   ClientFromContext(c).ClientID,
		SessionID:  id,
		VisitID:    c.PostForm("visit"),
		QuestionID: qid,
	}, true
}

func (h *Handler) SubmitTextAnswer(c *gin.Context) {
	sub, ok := h.submission(c)
	if !ok {
		h.NotFound(c)
		return
	}
	state, err := h.interview(c).SubmitText(c.Request.Context(), sub, c.PostForm("draft"))
	h.answered(c, sub, state, err)
}

func (h *Handler) SubmitAudioAnswer(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Backend.UploadMaxBytes)
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg := fmt.Sprintf("Audio files are limited to %d MB.", h.Backend.UploadMaxBytes>>20)
			if wantsJSON(c) {
				response.TooLarge(c, msg)
				return
			}
			h.render(c, http.StatusRequestEntityTooLarge, "error.html", gin.H{"Title": "Upload too large", "Message": msg})
			return
		}
	}

	sub, ok := h.submission(c)
	if !ok {
		h.NotFound(c)
		return
	}

	up := workflow.Upload{}
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			h.Logger.Sugar().Errorw("open uploaded audio", "err", err)
		} else {
			defer f.Close()
			up = workflow.Upload{Filename: fh.Filename, Size: fh.Size, Body: f}
		}
	}

	state, err := h.interview(c).SubmitAudio(c.Request.Context(), sub, up)
	h.answered(c, sub, state, err)
}

func (h *Handler) answered(c *gin.Context, sub workflow.Submission, state *workflow.AnswerState, err error) {
	if err != nil {
		h.logBackend(c, "answer failed", err, "session", sub.SessionID, "question", sub.QuestionID)
	}

	if wantsJSON(c) {
		if err != nil {
			h.fail(c, err)
			return
		}
		h.ok(c, answerPayload{
			QuestionID: sub.QuestionID,
			Draft:      state.Draft,
			Analytics:  state.Analytics,
		})
		return
	}

	switch {
	case workflow.IsUnauthorized(err):
		h.signOut(c)
		h.redirect(c, workflow.PathLogin)
	case errors.Is(err, workflow.ErrUnknownQuestion):
		h.NotFound(c)
	case errors.Is(err, workflow.ErrVisitNotFound):
		h.redirect(c, workflow.InterviewPath(sub.SessionID))
	default:
		h.redirect(c, visitPath(sub.SessionID, sub.VisitID, sub.QuestionID))
	}
}

// GenerateReportFromInterview may run whatever was answered so far.
func (h *Handler) GenerateReportFromInterview(c *gin.Context) {
	id, ok := pkg.ParseID(c.Param("id"))
	if !ok {
		h.NotFound(c)
		return
	}
	tr, err := h.interview(c).GenerateReport(c.Request.Context(), id)
	if err != nil {
		h.logBackend(c, "generate report failed", err, "session", id)
		if wantsJSON(c) {
			h.fail(c, err)
			return
		}
		if workflow.IsUnauthorized(err) {
			h.signOut(c)
			h.redirect(c, workflow.PathLogin)
			return
		}
		h.renderInterview(c, statusFor(err), id, c.PostForm("visit"), workflow.Describe(err))
		return
	}
	if wantsJSON(c) {
		h.ok(c, gin.H{"redirect": tr.Redirect})
		return
	}
	h.redirect(c, tr.Redirect)
}

func visitPath(sessionID int64, visitID string, questionID int64) string {
	return fmt.Sprintf("%s?visit=%s#q-%d", workflow.InterviewPath(sessionID), url.QueryEscape(visitID), questionID)
}
