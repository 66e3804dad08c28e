package plan

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"taskdeck/client/internal/apiclient"
	"taskdeck/client/internal/protocol"
	"taskdeck/client/internal/ringbuf"
)

type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseQuestioning Phase = "questioning"
	PhaseSummary     Phase = "summary"
	PhaseExecuting   Phase = "executing"
	PhaseError       Phase = "error"
)

const (
	transcriptCapacity = 100
	traceCapacity      = 50
)

// API is the slice of the remote surface a planning session needs.
// *apiclient.Client satisfies it.
type API interface {
	StartPlan(ctx context.Context, req apiclient.StartPlanRequest) error
	AnswerPlan(ctx context.Context, sessionID string, req apiclient.AnswerPlanRequest) error
	ExecutePlan(ctx context.Context, sessionID string, req apiclient.ExecutePlanRequest) (apiclient.ExecutePlanResponse, error)
	CancelPlan(ctx context.Context, sessionID string) error
	RedoPlan(ctx context.Context, sessionID string) (apiclient.RedoPlanResponse, error)
	ResumePlan(ctx context.Context, sessionID string) error
}

// Session is the client side of one planning interview. It mints its own
// session id, binds itself into the subscriber table before the start
// request goes out, and advances phases from the events routed back to
// that id. All mutation goes through the session's own lock; the embedding
// UI only reads snapshots and dispatches intents.
type Session struct {
	api    API
	subs   *SubscriberTable
	logger *slog.Logger

	onTaskCreated func(taskID string)

	starting atomic.Bool

	mu             sync.Mutex
	phase          Phase
	sessionID      string
	questions      []protocol.Question
	activeQuestion int
	answers        map[int][]string
	questionCount  int
	loading        bool
	summary        string
	errText        string
	transcript     *ringbuf.Buffer
	trace          *ringbuf.Buffer
}

type Option func(*Session)

func WithTaskCreatedCallback(fn func(taskID string)) Option {
	return func(s *Session) { s.onTaskCreated = fn }
}

func NewSession(api API, subs *SubscriberTable, logger *slog.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		api:        api,
		subs:       subs,
		logger:     logger,
		phase:      PhaseIdle,
		answers:    map[int][]string{},
		transcript: ringbuf.New(transcriptCapacity),
		trace:      ringbuf.New(traceCapacity),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot is a read-only copy of the session for rendering.
type Snapshot struct {
	Phase          Phase
	SessionID      string
	Questions      []protocol.Question
	ActiveQuestion int
	Answers        map[int][]string
	QuestionCount  int
	Loading        bool
	Summary        string
	Error          string
	Transcript     []string
	Trace          []string
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	answers := make(map[int][]string, len(s.answers))
	for k, v := range s.answers {
		answers[k] = append([]string(nil), v...)
	}
	return Snapshot{
		Phase:          s.phase,
		SessionID:      s.sessionID,
		Questions:      append([]protocol.Question(nil), s.questions...),
		ActiveQuestion: s.activeQuestion,
		Answers:        answers,
		QuestionCount:  s.questionCount,
		Loading:        s.loading,
		Summary:        s.summary,
		Error:          s.errText,
		Transcript:     s.transcript.Items(),
		Trace:          s.trace.Items(),
	}
}

// StartPlanning mints a session id, registers the event subscriber and
// only then issues the start request, so the first server event cannot
// race the registration. A start already on the current call stack wins
// the compare-and-swap and later entries return immediately.
func (s *Session) StartPlanning(ctx context.Context, title, prompt string, askQuestions bool) error {
	if !s.starting.CompareAndSwap(false, true) {
		s.logger.Debug("ignoring duplicate start", "title", title)
		return nil
	}
	defer s.starting.Store(false)

	sessionID := uuid.NewString()

	s.mu.Lock()
	prevID := s.sessionID
	s.phase = PhaseQuestioning
	s.sessionID = sessionID
	s.questions = nil
	s.activeQuestion = 0
	s.answers = map[int][]string{}
	s.questionCount = 0
	s.loading = true
	s.summary = ""
	s.errText = ""
	s.transcript.Reset()
	s.trace.Reset()
	s.tracef("start planning %q session=%s", title, shortID(sessionID))
	s.mu.Unlock()

	if prevID != "" {
		s.release(prevID)
	}
	s.bind(sessionID)

	err := s.api.StartPlan(ctx, apiclient.StartPlanRequest{
		Title:        title,
		Prompt:       prompt,
		SessionID:    sessionID,
		AskQuestions: askQuestions,
	})
	if err != nil {
		s.failIfCurrent(sessionID, err)
		return err
	}

	s.mu.Lock()
	s.tracef("start request accepted, waiting for events")
	s.mu.Unlock()
	return nil
}

// bind registers the event handler for sessionID. The id is captured by
// value here; the handler never reads the session's current id, so a
// stale handler can only ever act on its own token.
func (s *Session) bind(sessionID string) {
	if s.subs == nil {
		return
	}
	s.subs.Bind(sessionID, func(ev protocol.Event) {
		s.handleEvent(sessionID, ev)
	})
}

func (s *Session) handleEvent(sessionID string, ev protocol.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionID != sessionID {
		s.tracef("dropped event for superseded session %s", shortID(sessionID))
		return
	}

	switch e := ev.(type) {
	case protocol.PlanQuestions:
		s.phase = PhaseQuestioning
		s.questions = append([]protocol.Question(nil), e.Questions...)
		s.activeQuestion = 0
		s.answers = map[int][]string{}
		s.questionCount += len(e.Questions)
		s.loading = false
		s.tracef("received %d questions (total asked %d)", len(e.Questions), s.questionCount)
	case protocol.PlanSummary:
		s.phase = PhaseSummary
		s.summary = e.Summary
		s.questions = nil
		s.answers = map[int][]string{}
		s.loading = false
		s.tracef("received summary (%d chars)", len(e.Summary))
	case protocol.PlanError:
		// History stays put so recovery never re-asks answered questions.
		s.phase = PhaseError
		s.errText = e.Error
		s.loading = false
		s.tracef("received error: %s", e.Error)
	case protocol.PlanOutput:
		s.transcript.Append(e.Content)
	}
}

// SetQuestionAnswer records answers for one question locally. Nothing
// is transmitted until SubmitAllAnswers.
func (s *Session) SetQuestionAnswer(questionIndex int, answers []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[questionIndex] = append([]string(nil), answers...)
}

// ToggleAnswer flips one option. Single-select questions replace the
// prior answer; multi-select questions add or remove the label without
// touching its siblings.
func (s *Session) ToggleAnswer(questionIndex int, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var q *protocol.Question
	for i := range s.questions {
		if s.questions[i].Index == questionIndex {
			q = &s.questions[i]
			break
		}
	}
	if q == nil {
		return
	}
	if !q.MultiSelect {
		s.answers[questionIndex] = []string{label}
		return
	}
	current := s.answers[questionIndex]
	for i, existing := range current {
		if existing == label {
			s.answers[questionIndex] = append(current[:i:i], current[i+1:]...)
			return
		}
	}
	s.answers[questionIndex] = append(current, label)
}

func (s *Session) GoToQuestion(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.questions) == 0 {
		s.activeQuestion = 0
		return
	}
	if index < 0 {
		index = 0
	}
	if index > len(s.questions)-1 {
		index = len(s.questions) - 1
	}
	s.activeQuestion = index
}

// AllQuestionsAnswered gates the submit action: every active question
// must have at least one non-empty answer.
func (s *Session) AllQuestionsAnswered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.questions) == 0 {
		return false
	}
	for _, q := range s.questions {
		if len(s.answers[q.Index]) == 0 {
			return false
		}
	}
	return true
}

// SubmitAllAnswers transmits the full answer set for the active
// questions in one call and marks the session loading until the server
// replies with the next batch or the summary.
func (s *Session) SubmitAllAnswers(ctx context.Context) error {
	s.mu.Lock()
	if s.sessionID == "" || len(s.questions) == 0 {
		s.mu.Unlock()
		return nil
	}
	if !s.allAnsweredLocked() {
		s.mu.Unlock()
		return fmt.Errorf("submit answers: %d questions still unanswered", s.unansweredLocked())
	}
	sessionID := s.sessionID
	answers := make([]apiclient.PlanAnswer, 0, len(s.questions))
	for _, q := range s.questions {
		answers = append(answers, apiclient.PlanAnswer{
			QuestionIndex: q.Index,
			Answers:       append([]string(nil), s.answers[q.Index]...),
		})
	}
	s.loading = true
	s.tracef("submitting %d answers", len(answers))
	s.mu.Unlock()

	err := s.api.AnswerPlan(ctx, sessionID, apiclient.AnswerPlanRequest{Answers: answers})
	if err != nil {
		s.failIfCurrent(sessionID, err)
		return err
	}
	return nil
}

// Execute turns the approved plan into a task. Success discards the
// session; failure keeps the accumulated history for resume/redo.
func (s *Session) Execute(ctx context.Context, title string, description *string) (string, error) {
	s.mu.Lock()
	if s.sessionID == "" {
		s.mu.Unlock()
		return "", nil
	}
	sessionID := s.sessionID
	s.phase = PhaseExecuting
	s.loading = true
	s.tracef("executing plan")
	s.mu.Unlock()

	resp, err := s.api.ExecutePlan(ctx, sessionID, apiclient.ExecutePlanRequest{
		Title:       title,
		Description: description,
	})
	if err != nil {
		s.failIfCurrent(sessionID, err)
		return "", err
	}

	s.release(sessionID)
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()

	if s.onTaskCreated != nil {
		s.onTaskCreated(resp.TaskID)
	}
	return resp.TaskID, nil
}

// Redo asks the server for a fresh session over the same task content
// and discards everything accumulated so far. The debug trace survives.
func (s *Session) Redo(ctx context.Context) error {
	s.mu.Lock()
	if s.sessionID == "" {
		s.mu.Unlock()
		return nil
	}
	oldID := s.sessionID
	s.phase = PhaseQuestioning
	s.questions = nil
	s.activeQuestion = 0
	s.answers = map[int][]string{}
	s.questionCount = 0
	s.summary = ""
	s.errText = ""
	s.loading = true
	s.transcript.Reset()
	s.tracef("redo requested for session %s", shortID(oldID))
	s.mu.Unlock()

	resp, err := s.api.RedoPlan(ctx, oldID)
	if err != nil {
		s.failIfCurrent(oldID, err)
		return err
	}

	s.release(oldID)

	// The id switch and the binding happen under one lock: an event for
	// the new id dispatched between them would otherwise be dropped as
	// superseded by a handler still comparing against the old id.
	s.mu.Lock()
	s.sessionID = resp.SessionID
	s.bind(resp.SessionID)
	s.tracef("rebound to session %s", shortID(resp.SessionID))
	s.mu.Unlock()
	return nil
}

// Resume re-issues the session after an error, keeping questions,
// answers and the trace; only the error text and the raw output
// transcript are cleared. Without an active session it is a no-op.
func (s *Session) Resume(ctx context.Context) error {
	s.mu.Lock()
	if s.sessionID == "" {
		s.mu.Unlock()
		return nil
	}
	sessionID := s.sessionID
	s.phase = PhaseQuestioning
	s.loading = true
	s.errText = ""
	s.transcript.Reset()
	s.tracef("resume requested, history preserved")
	s.mu.Unlock()

	err := s.api.ResumePlan(ctx, sessionID)
	if err != nil {
		s.failIfCurrent(sessionID, err)
		return err
	}
	return nil
}

// Cancel notifies the server best-effort and clears local state
// unconditionally; a slow or failed notification never wedges the UI.
func (s *Session) Cancel(ctx context.Context) {
	s.mu.Lock()
	sessionID := s.sessionID
	s.mu.Unlock()

	if sessionID != "" {
		if err := s.api.CancelPlan(ctx, sessionID); err != nil {
			s.logger.Debug("plan cancel notification failed", "error", err)
		}
		s.release(sessionID)
	}

	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()
}

func (s *Session) release(sessionID string) {
	if s.subs != nil {
		s.subs.Release(sessionID)
	}
}

func (s *Session) failIfCurrent(sessionID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionID != sessionID {
		return
	}
	s.phase = PhaseError
	s.errText = err.Error()
	s.loading = false
	s.tracef("request failed: %v", err)
}

func (s *Session) resetLocked() {
	s.phase = PhaseIdle
	s.sessionID = ""
	s.questions = nil
	s.activeQuestion = 0
	s.answers = map[int][]string{}
	s.questionCount = 0
	s.loading = false
	s.summary = ""
	s.errText = ""
	s.transcript.Reset()
	s.trace.Reset()
}

func (s *Session) allAnsweredLocked() bool {
	for _, q := range s.questions {
		if len(s.answers[q.Index]) == 0 {
			return false
		}
	}
	return true
}

func (s *Session) unansweredLocked() int {
	n := 0
	for _, q := range s.questions {
		if len(s.answers[q.Index]) == 0 {
			n++
		}
	}
	return n
}

func (s *Session) tracef(format string, args ...any) {
	s.trace.Append(fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...)))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
