package api

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/thywilljoshua/study-docs/internal/report"
	"github.com/thywilljoshua/study-docs/internal/session"
	"github.com/vmihailenco/msgpack/v5"
)

// HandleAnalyze runs the document analysis and returns the result.
func (h *Handler) HandleAnalyze(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	result, err := s.Analyze(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// HandleGetResult returns the stored analysis result.
func (h *Handler) HandleGetResult(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	result, err := s.Result()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// HandleGetResultMsgpack returns the analysis result MessagePack encoded,
// keyed by the JSON field names.
func (h *Handler) HandleGetResultMsgpack(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	result, err := s.Result()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(result); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/msgpack", buf.Bytes())
}

type answerRequest struct {
	Topic    *int `json:"topic"`
	Question *int `json:"question"`
	Option   *int `json:"option"`
}

func (r answerRequest) validate() error {
	switch {
	case r.Topic == nil:
		return NewValidationError("topic")
	case r.Question == nil:
		return NewValidationError("question")
	case r.Option == nil:
		return NewValidationError("option")
	}
	return nil
}

// HandleAnswer records one quiz answer and returns the updated score.
func (h *Handler) HandleAnswer(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var req answerRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}
	if err := s.Answer(*req.Topic, *req.Question, *req.Option); err != nil {
		return err
	}
	score, err := s.Score()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, score)
}

// HandleResetAnswers clears every quiz answer.
func (h *Handler) HandleResetAnswers(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	s.ResetAnswers()
	return c.NoContent(http.StatusNoContent)
}

// HandleScore grades the current answers.
func (h *Handler) HandleScore(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	score, err := s.Score()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, scoreBody(s, score))
}

// HandleFinishQuiz submits the quiz and returns the final score. Answers
// cannot change afterwards until they are cleared or the documents are
// analyzed again.
func (h *Handler) HandleFinishQuiz(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	score, err := s.Finish()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, scoreBody(s, score))
}

func scoreBody(s *session.Session, score report.Summary) map[string]interface{} {
	return map[string]interface{}{
		"correct":    score.Correct,
		"answered":   score.Answered,
		"total":      score.Total,
		"percentage": score.Percentage,
		"passed":     score.Passed(),
		"finished":   s.Finished(),
		"answers":    s.Answers(),
	}
}
