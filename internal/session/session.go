// Package session holds the application state of one study session: its
// documents, the analysis result, quiz answers and narration audio. All
// backend work goes through an explicit phase state machine.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/thywilljoshua/study-docs/internal/ai"
	"github.com/thywilljoshua/study-docs/internal/apperr"
	"github.com/thywilljoshua/study-docs/internal/audio"
	"github.com/thywilljoshua/study-docs/internal/document"
	"github.com/thywilljoshua/study-docs/internal/metrics"
	"github.com/thywilljoshua/study-docs/internal/models"
	"github.com/thywilljoshua/study-docs/internal/report"
)

var (
	// ErrBusy is returned when an operation is started while another is in flight.
	ErrBusy = errors.New("another operation is in progress")
	// ErrDiscarded is returned for results that arrive after a reset.
	ErrDiscarded = errors.New("session was reset while the operation was running")
	// ErrNoDocuments is returned when backend work is requested without files.
	ErrNoDocuments = errors.New("no documents uploaded")
	// ErrNoResult is returned when the analysis result is needed but missing.
	ErrNoResult = errors.New("no analysis result yet")
	// ErrNoAudio is returned when narration audio is needed but missing.
	ErrNoAudio = errors.New("no narration audio yet")
	// ErrQuizFinished is returned when an answer is changed after the quiz was submitted.
	ErrQuizFinished = errors.New("quiz already finished")
)

// ReasonSessionFull rejects files beyond the per-session limit.
const ReasonSessionFull = "session file limit reached"

// Deps are the collaborators shared by every session.
type Deps struct {
	Assistant ai.Assistant
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Limits    document.Limits
	// MaxFiles caps the documents held by one session; 0 means no cap.
	MaxFiles int
	MP3      audio.MP3Options
	// CallTimeout bounds each backend call; 0 leaves it to the transport.
	CallTimeout time.Duration
}

// Audio is the narration of the session documents.
type Audio struct {
	PCM        []byte       `json:"-"`
	WAV        []byte       `json:"-"`
	Format     audio.Format `json:"format"`
	Transcript string       `json:"transcript"`
	Truncated  bool         `json:"truncated"`
	Duration   float64      `json:"durationSeconds"`
	mp3        []byte
}

// Session is the state of one user's study run. It is safe for concurrent use.
type Session struct {
	id        string
	createdAt time.Time
	deps      Deps
	log       *slog.Logger

	mu         sync.Mutex
	phase      Phase
	epoch      uint64
	files      []*document.UploadedFile
	result     *models.AnalysisResult
	answers    models.Answers
	finished   bool
	audio      *Audio
	lastError  string
	lastAccess time.Time
}

// New creates an idle session.
func New(id string, deps Deps) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now()
	return &Session{
		id:         id,
		createdAt:  now,
		deps:       deps,
		log:        logger.With("session", shortID(id)),
		phase:      PhaseIdle,
		answers:    models.Answers{},
		lastAccess: now,
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (s *Session) ID() string { return s.id }

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// stable is the phase to settle in when no operation is running. Callers hold mu.
func (s *Session) stable() Phase {
	switch {
	case s.audio != nil:
		return PhaseAudioReady
	case s.result != nil:
		return PhaseCompleted
	default:
		return PhaseIdle
	}
}

// begin moves into a busy phase and returns the epoch the operation belongs
// to along with the documents to send. Callers must not hold mu.
func (s *Session) begin(op string, to Phase) (uint64, []*document.UploadedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastAccess = time.Now()
	if !s.phase.CanTransition(to) {
		return 0, nil, apperr.E(apperr.KindBusy, op, ErrBusy)
	}
	if len(s.files) == 0 {
		return 0, nil, apperr.E(apperr.KindValidation, op, ErrNoDocuments)
	}
	s.phase = to
	s.lastError = ""
	return s.epoch, append([]*document.UploadedFile(nil), s.files...), nil
}

// advance moves an in-flight operation to its next busy phase.
func (s *Session) advance(op string, epoch uint64, to Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return apperr.E(apperr.KindDiscarded, op, ErrDiscarded)
	}
	s.phase = to
	return nil
}

// fail rolls back to the last stable phase and records err.
func (s *Session) fail(op string, epoch uint64, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return apperr.E(apperr.KindDiscarded, op, ErrDiscarded)
	}
	s.phase = s.stable()
	s.lastError = err.Error()
	s.log.Warn("operation failed", "op", op, "phase", s.phase, "error", err)
	return err
}

// finish applies the outcome of an operation unless the session was reset
// in the meantime, then settles in the resulting stable phase.
func (s *Session) finish(op string, epoch uint64, apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		s.log.Info("discarding result of reset session", "op", op)
		return apperr.E(apperr.KindDiscarded, op, ErrDiscarded)
	}
	apply()
	s.phase = s.stable()
	s.lastAccess = time.Now()
	return nil
}

func (s *Session) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.deps.CallTimeout > 0 {
		return context.WithTimeout(ctx, s.deps.CallTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *Session) assistant(op string) (ai.Assistant, error) {
	if s.deps.Assistant == nil {
		return nil, apperr.Errorf(apperr.KindBackend, op, "generation backend is not configured")
	}
	return s.deps.Assistant, nil
}

// AddFiles validates sources and appends the accepted ones. Rejections are
// per file and never fail the call.
func (s *Session) AddFiles(ctx context.Context, sources []document.Source) ([]*document.UploadedFile, []document.Rejection, error) {
	const op = "session.AddFiles"

	if s.Phase().Busy() {
		return nil, nil, apperr.E(apperr.KindBusy, op, ErrBusy)
	}
	accepted, rejected, err := document.Intake(ctx, sources, s.deps.Limits)
	if err != nil {
		return nil, nil, apperr.E(apperr.KindValidation, op, err)
	}

	s.mu.Lock()
	if s.phase.Busy() {
		s.mu.Unlock()
		return nil, nil, apperr.E(apperr.KindBusy, op, ErrBusy)
	}
	if limit := s.deps.MaxFiles; limit > 0 {
		room := limit - len(s.files)
		if room < 0 {
			room = 0
		}
		if len(accepted) > room {
			for _, f := range accepted[room:] {
				rejected = append(rejected, document.Rejection{Name: f.Name, Reason: ReasonSessionFull})
			}
			accepted = accepted[:room]
		}
	}
	s.files = append(s.files, accepted...)
	s.lastAccess = time.Now()
	s.mu.Unlock()

	s.deps.Metrics.ObserveUpload(
		lo.Map(accepted, func(f *document.UploadedFile, _ int) string { return f.MIMEType }),
		lo.Map(accepted, func(f *document.UploadedFile, _ int) int64 { return f.Size }),
		len(rejected),
	)
	s.log.Info("files added", "accepted", len(accepted), "rejected", len(rejected))
	return accepted, rejected, nil
}

// RemoveFile drops a document by id.
func (s *Session) RemoveFile(id string) error {
	const op = "session.RemoveFile"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase.Busy() {
		return apperr.E(apperr.KindBusy, op, ErrBusy)
	}
	_, idx, ok := lo.FindIndexOf(s.files, func(f *document.UploadedFile) bool { return f.ID == id })
	if !ok {
		return apperr.Errorf(apperr.KindNotFound, op, "file not found: %s", id)
	}
	s.files = append(s.files[:idx:idx], s.files[idx+1:]...)
	s.lastAccess = time.Now()
	return nil
}

// Files returns the current documents.
func (s *Session) Files() []*document.UploadedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*document.UploadedFile(nil), s.files...)
}

// Analyze sends the documents for analysis and stores the result. Quiz
// answers are cleared when the analysis starts.
func (s *Session) Analyze(ctx context.Context) (*models.AnalysisResult, error) {
	const op = "session.Analyze"

	assistant, err := s.assistant(op)
	if err != nil {
		return nil, err
	}
	epoch, files, err := s.begin(op, PhaseAnalyzing)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.answers = models.Answers{}
	s.finished = false
	s.mu.Unlock()

	s.log.Info("analysis started", "files", len(files))
	callCtx, cancel := s.callContext(ctx)
	start := time.Now()
	result, err := assistant.Analyze(callCtx, files)
	cancel()
	s.deps.Metrics.ObserveBackendCall("analyze", start, err)
	if err != nil {
		return nil, s.fail(op, epoch, err)
	}

	if err := s.finish(op, epoch, func() {
		s.result = result
		s.answers = models.Answers{}
		s.finished = false
	}); err != nil {
		return nil, err
	}
	s.log.Info("analysis stored", "questions", result.QuestionCount(), "took", time.Since(start))
	return result, nil
}

// Narrate transcribes the documents verbatim, synthesizes speech and keeps
// the audio as PCM and WAV.
func (s *Session) Narrate(ctx context.Context) (*Audio, error) {
	const op = "session.Narrate"

	assistant, err := s.assistant(op)
	if err != nil {
		return nil, err
	}
	epoch, files, err := s.begin(op, PhaseTranscribing)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := s.callContext(ctx)
	start := time.Now()
	transcript, err := assistant.Transcribe(callCtx, files)
	cancel()
	s.deps.Metrics.ObserveBackendCall("transcribe", start, err)
	if err != nil {
		return nil, s.fail(op, epoch, err)
	}

	if err := s.advance(op, epoch, PhaseSynthesizing); err != nil {
		return nil, err
	}

	callCtx, cancel = s.callContext(ctx)
	start = time.Now()
	speech, err := assistant.Synthesize(callCtx, transcript.Text)
	cancel()
	s.deps.Metrics.ObserveBackendCall("synthesize", start, err)
	if err != nil {
		return nil, s.fail(op, epoch, err)
	}

	a := &Audio{
		PCM:        speech.PCM,
		WAV:        audio.WrapPCM(speech.PCM, speech.Format),
		Format:     speech.Format,
		Transcript: transcript.Text,
		Truncated:  transcript.Truncated,
		Duration:   audio.Duration(speech.PCM, speech.Format),
	}
	if err := s.finish(op, epoch, func() { s.audio = a }); err != nil {
		return nil, err
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.AudioDuration.Observe(a.Duration)
	}
	s.log.Info("narration ready", "seconds", a.Duration, "truncated", a.Truncated)
	return a, nil
}

// Audio returns the narration, if any.
func (s *Session) Audio() (*Audio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audio == nil {
		return nil, apperr.E(apperr.KindNotFound, "session.Audio", ErrNoAudio)
	}
	return s.audio, nil
}

// MP3 encodes the narration on first use and caches the result.
func (s *Session) MP3() ([]byte, error) {
	const op = "session.MP3"

	s.mu.Lock()
	a := s.audio
	s.mu.Unlock()
	if a == nil {
		return nil, apperr.E(apperr.KindNotFound, op, ErrNoAudio)
	}

	s.mu.Lock()
	cached := a.mp3
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	opts := s.deps.MP3
	opts.SampleRate = a.Format.SampleRate
	opts.Channels = a.Format.Channels
	data, err := audio.EncodeMP3(a.PCM, opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if a.mp3 == nil {
		a.mp3 = data
	}
	data = a.mp3
	s.mu.Unlock()
	return data, nil
}

// Result returns the analysis result, if any.
func (s *Session) Result() (*models.AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil, apperr.E(apperr.KindNotFound, "session.Result", ErrNoResult)
	}
	return s.result, nil
}

// Answer records the option selected for a question.
func (s *Session) Answer(topic, question, option int) error {
	const op = "session.Answer"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseAnalyzing {
		return apperr.E(apperr.KindBusy, op, ErrBusy)
	}
	if s.result == nil {
		return apperr.E(apperr.KindNotFound, op, ErrNoResult)
	}
	if s.finished {
		return apperr.E(apperr.KindValidation, op, ErrQuizFinished)
	}
	key := models.AnswerKey{Topic: topic, Question: question}
	q, ok := s.result.Question(key)
	if !ok {
		return apperr.Errorf(apperr.KindValidation, op, "no question %s", key)
	}
	if option < 0 || option >= len(q.Options) {
		return apperr.Errorf(apperr.KindValidation, op, "option %d out of range for question %s", option, key)
	}
	s.answers[key] = option
	s.lastAccess = time.Now()
	return nil
}

// Answers returns a copy of the selected options.
func (s *Session) Answers() models.Answers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Clone()
}

// ResetAnswers clears every selection and reopens a finished quiz.
func (s *Session) ResetAnswers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = models.Answers{}
	s.finished = false
}

// Finish submits the quiz: answers are frozen until ResetAnswers or a new
// analysis, and the final score is returned. Finishing twice is a no-op.
func (s *Session) Finish() (report.Summary, error) {
	const op = "session.Finish"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseAnalyzing {
		return report.Summary{}, apperr.E(apperr.KindBusy, op, ErrBusy)
	}
	if s.result == nil {
		return report.Summary{}, apperr.E(apperr.KindNotFound, op, ErrNoResult)
	}
	summary := report.Score(s.result, s.answers)
	if !s.finished {
		s.finished = true
		s.lastAccess = time.Now()
		s.log.Info("quiz finished", "correct", summary.Correct, "total", summary.Total)
	}
	return summary, nil
}

// Finished reports whether the quiz was submitted.
func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// Score grades the current answers.
func (s *Session) Score() (report.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return report.Summary{}, apperr.E(apperr.KindNotFound, "session.Score", ErrNoResult)
	}
	return report.Score(s.result, s.answers), nil
}

// Reset returns the session to a fresh idle state. Operations still in
// flight keep running, but their results are discarded when they arrive.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.phase = PhaseIdle
	s.files = nil
	s.result = nil
	s.answers = models.Answers{}
	s.finished = false
	s.audio = nil
	s.lastError = ""
	s.lastAccess = time.Now()
	s.log.Info("session reset")
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID         string                   `json:"id"`
	Phase      Phase                    `json:"phase"`
	Files      []*document.UploadedFile `json:"files"`
	HasResult  bool                     `json:"hasResult"`
	Answered   int                      `json:"answered"`
	Finished   bool                     `json:"finished"`
	Audio      *Audio                   `json:"audio,omitempty"`
	LastError  string                   `json:"lastError,omitempty"`
	CreatedAt  time.Time                `json:"createdAt"`
	LastAccess time.Time                `json:"lastAccess"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	files := append([]*document.UploadedFile{}, s.files...)
	return Snapshot{
		ID:         s.id,
		Phase:      s.phase,
		Files:      files,
		HasResult:  s.result != nil,
		Answered:   len(s.answers),
		Finished:   s.finished,
		Audio:      s.audio,
		LastError:  s.lastError,
		CreatedAt:  s.createdAt,
		LastAccess: s.lastAccess,
	}
}

// activity returns the last access time and whether an operation is running.
func (s *Session) activity() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess, s.phase.Busy()
}
