package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thywilljoshua/study-docs/internal/ai"
	"github.com/thywilljoshua/study-docs/internal/apperr"
	"github.com/thywilljoshua/study-docs/internal/audio"
	"github.com/thywilljoshua/study-docs/internal/document"
	"github.com/thywilljoshua/study-docs/internal/metrics"
	"github.com/thywilljoshua/study-docs/internal/models"
	"github.com/thywilljoshua/study-docs/internal/session"
	"github.com/vmihailenco/msgpack/v5"
)

type fakeAssistant struct {
	result     *models.AnalysisResult
	analyzeErr error
}

func (f *fakeAssistant) Analyze(context.Context, []*document.UploadedFile) (*models.AnalysisResult, error) {
	return f.result, f.analyzeErr
}

func (f *fakeAssistant) Transcribe(context.Context, []*document.UploadedFile) (*ai.Transcript, error) {
	return &ai.Transcript{Text: "The cell is the basic unit of life."}, nil
}

func (f *fakeAssistant) Synthesize(context.Context, string) (*ai.Speech, error) {
	return &ai.Speech{PCM: make([]byte, 480), Format: audio.DefaultFormat}, nil
}

func sampleResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		Summary: "Cells and energy.",
		Quizzes: []models.Topic{{
			Topic: "Cells",
			Questions: []models.Question{
				{Text: "Powerhouse?", Options: []string{"Nucleus", "Mitochondria", "Ribosome", "Wall"}, CorrectAnswerIndex: 1, Explanation: "ATP."},
				{Text: "Genetic material?", Options: []string{"DNA", "Lipid", "Sugar", "Water"}, CorrectAnswerIndex: 0, Explanation: "DNA."},
			},
		}},
	}
}

type testServer struct {
	e    *echo.Echo
	reg  *prometheus.Registry
	fake *fakeAssistant
}

func newTestServer(t *testing.T, mp3 audio.MP3Options) *testServer {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	fake := &fakeAssistant{result: sampleResult()}
	mgr := session.NewManager(session.Deps{Assistant: fake, Metrics: m, MP3: mp3}, 4)
	e := NewServer(Dependencies{Sessions: mgr, Metrics: m, Gatherer: reg, Version: "test"})
	return &testServer{e: e, reg: reg, fake: fake}
}

func (ts *testServer) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) createSession(t *testing.T) string {
	t.Helper()
	rec := ts.do(http.MethodPost, "/api/sessions", nil, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.NotEmpty(t, snap.ID)
	assert.Equal(t, session.PhaseIdle, snap.Phase)
	return snap.ID
}

func (ts *testServer) upload(t *testing.T, id string, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return ts.do(http.MethodPost, "/api/sessions/"+id+"/files", &body, w.FormDataContentType())
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	return apiErr
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(t, audio.MP3Options{})
	rec := ts.do(http.MethodGet, "/api/health", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestHandleSchema(t *testing.T) {
	ts := newTestServer(t, audio.MP3Options{})
	rec := ts.do(http.MethodGet, "/api/schema", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "correctAnswerIndex")
}

func TestStudyFlow(t *testing.T) {
	ts := newTestServer(t, audio.MP3Options{})
	id := ts.createSession(t)
	base := "/api/sessions/" + id

	rec := ts.upload(t, id, map[string]string{"notes.txt": "cells", "virus.exe": "MZ"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var up UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	require.Len(t, up.Accepted, 1)
	assert.Equal(t, "notes.txt", up.Accepted[0].Name)
	assert.Equal(t, document.MIMEText, up.Accepted[0].MIMEType)
	assert.Equal(t, []document.Rejection{{Name: "virus.exe", Reason: document.ReasonUnsupported}}, up.Rejected)

	// no result before analysis
	rec = ts.do(http.MethodGet, base+"/result", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPost, base+"/analyze", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result models.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.QuestionCount())

	rec = ts.do(http.MethodPut, base+"/answers", strings.NewReader(`{"topic":0,"question":0,"option":1}`), echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = ts.do(http.MethodPut, base+"/answers", strings.NewReader(`{"topic":0,"question":1,"option":3}`), echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, base+"/score", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var score struct {
		Correct    int            `json:"correct"`
		Total      int            `json:"total"`
		Percentage int            `json:"percentage"`
		Passed     bool           `json:"passed"`
		Answers    map[string]int `json:"answers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &score))
	assert.Equal(t, 1, score.Correct)
	assert.Equal(t, 2, score.Total)
	assert.Equal(t, 50, score.Percentage)
	assert.False(t, score.Passed)
	assert.Equal(t, map[string]int{"0-0": 1, "0-1": 3}, score.Answers)

	rec = ts.do(http.MethodGet, base+"/report.txt", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), ReportTextName)
	assert.Contains(t, rec.Body.String(), "STUDY REPORT - DOCUMENT ANALYSIS")
	assert.Contains(t, rec.Body.String(), "Score: 50% (1/2)")

	rec = ts.do(http.MethodGet, base+"/report.pdf", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), ReportPDFName)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	rec = ts.do(http.MethodGet, base+"/result/msgpack", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/msgpack", rec.Header().Get(echo.HeaderContentType))
	var decoded models.AnalysisResult
	dec := msgpack.NewDecoder(bytes.NewReader(rec.Body.Bytes()))
	dec.SetCustomStructTag("json")
	require.NoError(t, dec.Decode(&decoded))
	assert.Equal(t, result, decoded)

	rec = ts.do(http.MethodDelete, base+"/answers", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(http.MethodGet, base+"/score", nil, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &score))
	assert.Equal(t, 0, score.Percentage)
}

func TestFinishQuiz(t *testing.T) {
	ts := newTestServer(t, audio.MP3Options{})
	id := ts.createSession(t)
	base := "/api/sessions/" + id

	rec := ts.do(http.MethodPost, base+"/quiz/finish", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.Equal(t, http.StatusCreated, ts.upload(t, id, map[string]string{"notes.txt": "cells"}).Code)
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, base+"/analyze", nil, "").Code)
	rec = ts.do(http.MethodPut, base+"/answers", strings.NewReader(`{"topic":0,"question":0,"option":1}`), echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPost, base+"/quiz/finish", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var score struct {
		Correct  int  `json:"correct"`
		Answered int  `json:"answered"`
		Finished bool `json:"finished"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &score))
	assert.Equal(t, 1, score.Correct)
	assert.Equal(t, 1, score.Answered)
	assert.True(t, score.Finished)

	// answers are frozen once finished
	rec = ts.do(http.MethodPut, base+"/answers", strings.NewReader(`{"topic":0,"question":1,"option":0}`), echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Message, session.ErrQuizFinished.Error())

	rec = ts.do(http.MethodGet, base, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.True(t, snap.Finished)
	assert.Equal(t, 1, snap.Answered)

	// clearing the answers reopens the quiz
	require.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, base+"/answers", nil, "").Code)
	rec = ts.do(http.MethodGet, base+"/score", nil, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &score))
	assert.False(t, score.Finished)
	rec = ts.do(http.MethodPut, base+"/answers", strings.NewReader(`{"topic":0,"question":1,"option":0}`), echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNarrationDownloads(t *testing.T) {
	ts := newTestServer(t, audio.MP3Options{})
	id := ts.createSession(t)
	base := "/api/sessions/" + id

	rec := ts.do(http.MethodGet, base+"/audio.wav", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ts.upload(t, id, map[string]string{"notes.txt": "cells"})
	rec = ts.do(http.MethodPost, base+"/narrate", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var info struct {
		Transcript string  `json:"transcript"`
		Truncated  bool    `json:"truncated"`
		Duration   float64 `json:"durationSeconds"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "The cell is the basic unit of life.", info.Transcript)
	assert.False(t, info.Truncated)
	assert.InDelta(t, 0.01, info.Duration, 1e-9)

	rec = ts.do(http.MethodGet, base+"/audio.wav", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/wav", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), NarrationWAVName)
	assert.Len(t, rec.Body.Bytes(), 480+audio.HeaderSize)

	// no encoder configured
	rec = ts.do(http.MethodGet, base+"/audio.mp3", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, rec).Code)

	rec = ts.do(http.MethodGet, base, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"phase":"audio_ready"`)
}

func TestUploadNothingAccepted(t *testing.T) {
	ts := newTestServer(t, audio.MP3Options{})
	id := ts.createSession(t)

	rec := ts.upload(t, id, map[string]string{"empty.txt": ""})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var up UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	assert.Empty(t, up.Accepted)
	assert.Equal(t, document.ReasonEmpty, up.Rejected[0].Reason)

	rec = ts.do(http.MethodPost, "/api/sessions/"+id+"/analyze", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFileRemoval(t *testing.T) {
	ts := newTestServer(t, audio.MP3Options{})
	id := ts.createSession(t)

	rec := ts.upload(t, id, map[string]string{"notes.txt": "cells"})
	var up UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))

	path := "/api/sessions/" + id + "/files/" + up.Accepted[0].ID
	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, path, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, path, nil, "").Code)
}

func TestHandlerErrors(t *testing.T) {
	ts := newTestServer(t, audio.MP3Options{})
	id := ts.createSession(t)
	ts.upload(t, id, map[string]string{"notes.txt": "cells"})
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/api/sessions/"+id+"/analyze", nil, "").Code)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		errCode    string
	}{
		{"unknown session", http.MethodGet, "/api/sessions/nope", "", http.StatusNotFound, "NOT_FOUND"},
		{"missing option", http.MethodPut, "/api/sessions/" + id + "/answers", `{"topic":0,"question":0}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"option out of range", http.MethodPut, "/api/sessions/" + id + "/answers", `{"topic":0,"question":0,"option":4}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown question", http.MethodPut, "/api/sessions/" + id + "/answers", `{"topic":3,"question":0,"option":0}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad json", http.MethodPut, "/api/sessions/" + id + "/answers", `{`, http.StatusBadRequest, "BAD_REQUEST"},
		{"upload without form", http.MethodPost, "/api/sessions/" + id + "/files", `x`, http.StatusBadRequest, "BAD_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			rec := ts.do(tt.method, tt.path, body, echo.MIMEApplicationJSON)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.errCode, decodeError(t, rec).Code)
		})
	}
}

func TestBackendFailure(t *testing.T) {
	ts := newTestServer(t, audio.MP3Options{})
	ts.fake.analyzeErr = apperr.E(apperr.KindBackend, "ai.Analyze", ai.ErrMalformedResponse)
	id := ts.createSession(t)
	ts.upload(t, id, map[string]string{"notes.txt": "cells"})

	rec := ts.do(http.MethodPost, "/api/sessions/"+id+"/analyze", nil, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "BACKEND_ERROR", decodeError(t, rec).Code)

	rec = ts.do(http.MethodGet, "/api/sessions/"+id, nil, "")
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, session.PhaseIdle, snap.Phase)
	assert.NotEmpty(t, snap.LastError)
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t, audio.MP3Options{})
	id := ts.createSession(t)
	ts.upload(t, id, map[string]string{"notes.txt": "cells"})

	rec := ts.do(http.MethodPost, "/api/sessions/"+id+"/reset", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Empty(t, snap.Files)

	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/api/sessions/"+id, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/sessions/"+id, nil, "").Code)

	// the manager allows four sessions
	for i := 0; i < 4; i++ {
		ts.createSession(t)
	}
	rec = ts.do(http.MethodPost, "/api/sessions", nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, audio.MP3Options{})
	ts.do(http.MethodGet, "/api/sessions/missing", nil, "")

	rec := ts.do(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `studydocs_http_requests_total{method="GET",route="/api/sessions/:id",status="404"} 1`)
}

func TestFromError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{apperr.Errorf(apperr.KindValidation, "op", "bad"), http.StatusBadRequest},
		{apperr.Errorf(apperr.KindNotFound, "op", "gone"), http.StatusNotFound},
		{apperr.E(apperr.KindBusy, "op", session.ErrBusy), http.StatusConflict},
		{apperr.E(apperr.KindDiscarded, "op", session.ErrDiscarded), http.StatusConflict},
		{apperr.Errorf(apperr.KindBackend, "op", "upstream"), http.StatusBadGateway},
		{apperr.E(apperr.KindEncoderUnavailable, "op", audio.ErrEncoderUnavailable), http.StatusServiceUnavailable},
		{echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed},
		{NewValidationError("x"), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.wantStatus, FromError(tt.err).Status, "%v", tt.err)
	}
}
