package mocktest

import (
	"fmt"
	"sync"
	"time"

	customErrors "github.com/abisalde/student-portal/internal/errors"
	"github.com/abisalde/student-portal/pkg/scheduler"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusSubmitted Status = "submitted"
)

const NotAnswered = "Not answered"

var warnings = map[int]string{
	300: "Warning: 5 minutes remaining!",
	120: "Warning: 2 minutes remaining!",
	30:  "Final Warning: 30 seconds remaining!",
}

type Options struct {
	Duration       time.Duration
	WarningDisplay time.Duration
	Tick           time.Duration
	// Retention is how long a submitted session stays readable before the
	// Manager forgets it.
	Retention time.Duration
	// MaxPerUser caps the sessions one user holds; starting another evicts the oldest.
	MaxPerUser int
}

func (o Options) withDefaults() Options {
	if o.Duration <= 0 {
		o.Duration = 15 * time.Minute
	}
	if o.WarningDisplay <= 0 {
		o.WarningDisplay = 5 * time.Second
	}
	if o.Tick <= 0 {
		o.Tick = time.Second
	}
	if o.Retention <= 0 {
		o.Retention = 30 * time.Minute
	}
	if o.MaxPerUser <= 0 {
		o.MaxPerUser = 3
	}
	return o
}

// Session is one sitting of a test. It counts down from the configured duration
// and moves to submitted exactly once, on Submit or when the clock runs out.
type Session struct {
	ID        string
	UserID    string
	StartedAt time.Time

	mu          sync.Mutex
	test        *Test
	sched       scheduler.Scheduler
	opts        Options
	answers     map[int]string
	timeLeft    int
	status      Status
	correct     int
	warning     string
	showWarning bool
	warningGen  int
	ticker      scheduler.Task
	dismiss     scheduler.Task
	onSubmit    func(*Session)
}

func newSession(id, userID string, test *Test, sched scheduler.Scheduler, opts Options, now time.Time) *Session {
	opts = opts.withDefaults()
	s := &Session{
		ID:        id,
		UserID:    userID,
		StartedAt: now,
		test:      test,
		sched:     sched,
		opts:      opts,
		answers:   make(map[int]string),
		timeLeft:  int(opts.Duration / time.Second),
		status:    StatusRunning,
	}
	s.ticker = sched.Every(opts.Tick, s.tick)
	return s
}

func (s *Session) tick() {
	s.mu.Lock()
	if s.status != StatusRunning {
		s.mu.Unlock()
		return
	}

	if s.timeLeft <= 1 {
		s.timeLeft = 0
		s.submitLocked()
		s.mu.Unlock()
		s.notifySubmit()
		return
	}

	s.timeLeft--
	if msg, ok := warnings[s.timeLeft]; ok {
		s.raiseWarning(msg)
	}
	s.mu.Unlock()
}

// raiseWarning shows msg and schedules its dismissal. A newer warning replaces
// the pending dismissal of an older one.
func (s *Session) raiseWarning(msg string) {
	if s.dismiss != nil {
		s.dismiss.Cancel()
	}
	s.warningGen++
	gen := s.warningGen
	s.warning = msg
	s.showWarning = true

	s.dismiss = s.sched.After(s.opts.WarningDisplay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.warningGen == gen {
			s.showWarning = false
		}
	})
}

// Answer records choice for questionID, replacing any earlier choice. It is a
// no-op once the session is submitted.
func (s *Session) Answer(questionID int, choice string) (bool, error) {
	q, ok := s.test.question(questionID)
	if !ok || !q.hasOption(choice) {
		return false, customErrors.InvalidAnswer
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return false, nil
	}
	s.answers[questionID] = choice
	return true, nil
}

// Submit ends the session. Calling it again has no effect.
func (s *Session) Submit() {
	s.mu.Lock()
	if s.status != StatusRunning {
		s.mu.Unlock()
		return
	}
	s.submitLocked()
	s.mu.Unlock()
	s.notifySubmit()
}

func (s *Session) submitLocked() {
	s.cancelTasks()
	s.showWarning = false

	correct := 0
	for _, q := range s.test.Questions {
		if s.answers[q.ID] == q.CorrectAnswer {
			correct++
		}
	}
	s.correct = correct
	s.status = StatusSubmitted
}

func (s *Session) notifySubmit() {
	if s.onSubmit != nil {
		s.onSubmit(s)
	}
}

func (s *Session) cancelTasks() {
	if s.ticker != nil {
		s.ticker.Cancel()
	}
	if s.dismiss != nil {
		s.dismiss.Cancel()
	}
}

// Close stops the countdown without submitting.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTasks()
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) TimeLeft() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeLeft
}

// Warning returns the banner text while it is showing.
func (s *Session) Warning() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.warning, s.showWarning
}

// Score is the percentage of correctly answered questions. Unanswered questions
// count as wrong.
func (s *Session) Score() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return score(s.correct, len(s.test.Questions))
}

func score(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(correct) * 100 / float64(total)
}

func FormatScore(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// FormatTime renders seconds as MM:SS.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

type Result struct {
	QuestionID    int    `json:"questionId"`
	Question      string `json:"question"`
	Category      string `json:"category"`
	Answer        string `json:"answer"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer,omitempty"`
}

// Results lists every question with the given answer. The correct answer is only
// included for questions answered wrongly. Nil until the session is submitted.
func (s *Session) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusSubmitted {
		return nil
	}

	out := make([]Result, 0, len(s.test.Questions))
	for _, q := range s.test.Questions {
		r := Result{QuestionID: q.ID, Question: q.Question, Category: q.Category, Answer: NotAnswered}
		if a, ok := s.answers[q.ID]; ok {
			r.Answer = a
		}
		r.Correct = s.answers[q.ID] == q.CorrectAnswer
		if !r.Correct {
			r.CorrectAnswer = q.CorrectAnswer
		}
		out = append(out, r)
	}
	return out
}

// View is the JSON shape of a session.
type View struct {
	ID           string         `json:"id"`
	TestID       int            `json:"testId"`
	Title        string         `json:"title"`
	Status       Status         `json:"status"`
	TimeLeft     int            `json:"timeLeft"`
	TimeDisplay  string         `json:"timeDisplay"`
	LowTime      bool           `json:"lowTime"`
	Warning      string         `json:"warning,omitempty"`
	Questions    []Question     `json:"questions"`
	Answers      map[int]string `json:"answers"`
	Score        *float64       `json:"score,omitempty"`
	ScoreDisplay string         `json:"scoreDisplay,omitempty"`
	Results      []Result       `json:"results,omitempty"`
	StartedAt    time.Time      `json:"startedAt"`
}

func (s *Session) View() View {
	results := s.Results()

	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:          s.ID,
		TestID:      s.test.ID,
		Title:       s.test.Title,
		Status:      s.status,
		TimeLeft:    s.timeLeft,
		TimeDisplay: FormatTime(s.timeLeft),
		LowTime:     s.timeLeft <= 300,
		Answers:     make(map[int]string, len(s.answers)),
		StartedAt:   s.StartedAt,
		Results:     results,
	}
	if s.showWarning {
		v.Warning = s.warning
	}
	for k, a := range s.answers {
		v.Answers[k] = a
	}

	v.Questions = make([]Question, len(s.test.Questions))
	for i, q := range s.test.Questions {
		if s.status == StatusRunning {
			q.CorrectAnswer = ""
		}
		q.Options = append([]string(nil), q.Options...)
		v.Questions[i] = q
	}

	if s.status == StatusSubmitted {
		sc := score(s.correct, len(s.test.Questions))
		v.Score = &sc
		v.ScoreDisplay = FormatScore(sc)
	}
	return v
}
