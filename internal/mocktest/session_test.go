package mocktest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customErrors "github.com/abisalde/student-portal/internal/errors"
	"github.com/abisalde/student-portal/pkg/scheduler"
)

func fourQuestionTest() *Test {
	return &Test{
		ID:    7,
		Title: "Sample",
		Questions: []Question{
			{ID: 1, Question: "2+2", Options: []string{"3", "4"}, CorrectAnswer: "4"},
			{ID: 2, Question: "3+3", Options: []string{"6", "7"}, CorrectAnswer: "6"},
			{ID: 3, Question: "4+4", Options: []string{"8", "9"}, CorrectAnswer: "8"},
			{ID: 4, Question: "5+5", Options: []string{"10", "11"}, CorrectAnswer: "10"},
		},
	}
}

func startSession(opts Options) (*Session, *scheduler.Manual) {
	clock := scheduler.NewManual()
	return newSession("s1", "u1", fourQuestionTest(), clock, opts, time.Unix(0, 0)), clock
}

func TestCountdown(t *testing.T) {
	s, clock := startSession(Options{Duration: 900 * time.Second})
	assert.Equal(t, 900, s.TimeLeft())

	clock.Advance(600 * time.Second)
	assert.Equal(t, 300, s.TimeLeft())
	assert.Equal(t, StatusRunning, s.Status())

	msg, showing := s.Warning()
	assert.True(t, showing)
	assert.Equal(t, "Warning: 5 minutes remaining!", msg)
	assert.Equal(t, 1, s.warningGen, "five minute warning fires once")

	clock.Advance(5 * time.Second)
	_, showing = s.Warning()
	assert.False(t, showing, "banner clears after five seconds")
	assert.Equal(t, 1, s.warningGen)

	clock.Advance(175 * time.Second)
	msg, showing = s.Warning()
	assert.Equal(t, 120, s.TimeLeft())
	assert.True(t, showing)
	assert.Equal(t, "Warning: 2 minutes remaining!", msg)

	clock.Advance(90 * time.Second)
	msg, _ = s.Warning()
	assert.Equal(t, "Final Warning: 30 seconds remaining!", msg)
	assert.Equal(t, 3, s.warningGen)

	clock.Advance(29 * time.Second)
	assert.Equal(t, 1, s.TimeLeft())
	assert.Equal(t, StatusRunning, s.Status())

	clock.Advance(time.Second)
	assert.Equal(t, 0, s.TimeLeft())
	assert.Equal(t, StatusSubmitted, s.Status())
	assert.Equal(t, 0, clock.Pending(), "submission cancels the ticker")

	clock.Advance(10 * time.Second)
	assert.Equal(t, 0, s.TimeLeft())
}

func TestNewerWarningReplacesDismissal(t *testing.T) {
	s, clock := startSession(Options{Duration: 900 * time.Second, WarningDisplay: 200 * time.Second})

	clock.Advance(600 * time.Second)
	clock.Advance(180 * time.Second)
	msg, showing := s.Warning()
	require.True(t, showing)
	assert.Equal(t, "Warning: 2 minutes remaining!", msg)

	// the first warning's dismissal was due at 800s
	clock.Advance(20 * time.Second)
	_, showing = s.Warning()
	assert.True(t, showing)

	clock.Advance(80 * time.Second)
	msg, showing = s.Warning()
	assert.True(t, showing)
	assert.Equal(t, "Final Warning: 30 seconds remaining!", msg)
}

func TestSubmitScoresAndStops(t *testing.T) {
	s, clock := startSession(Options{})

	for qid, choice := range map[int]string{1: "4", 2: "6", 3: "8"} {
		ok, err := s.Answer(qid, choice)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	_, _ = s.Answer(1, "3")
	_, _ = s.Answer(1, "4")

	clock.Advance(10 * time.Second)
	s.Submit()
	s.Submit()

	assert.Equal(t, StatusSubmitted, s.Status())
	assert.Equal(t, 890, s.TimeLeft())
	assert.Equal(t, "75.00", FormatScore(s.Score()))
	assert.Equal(t, 0, clock.Pending())

	ok, err := s.Answer(4, "10")
	require.NoError(t, err)
	assert.False(t, ok, "answers are frozen after submission")
	assert.Equal(t, "75.00", FormatScore(s.Score()))

	results := s.Results()
	require.Len(t, results, 4)
	assert.True(t, results[0].Correct)
	assert.Empty(t, results[0].CorrectAnswer)
	assert.Equal(t, NotAnswered, results[3].Answer)
	assert.False(t, results[3].Correct)
	assert.Equal(t, "10", results[3].CorrectAnswer)
}

func TestAnswerRejectsUnknownChoices(t *testing.T) {
	s, _ := startSession(Options{})

	_, err := s.Answer(99, "4")
	assert.ErrorIs(t, err, customErrors.InvalidAnswer)

	_, err = s.Answer(1, "five")
	assert.ErrorIs(t, err, customErrors.InvalidAnswer)
}

func TestViewHidesAnswersUntilSubmitted(t *testing.T) {
	s, _ := startSession(Options{})
	_, _ = s.Answer(2, "7")

	v := s.View()
	assert.Equal(t, "15:00", v.TimeDisplay)
	assert.Nil(t, v.Score)
	assert.Nil(t, v.Results)
	for _, q := range v.Questions {
		assert.Empty(t, q.CorrectAnswer)
	}
	assert.Equal(t, "7", v.Answers[2])

	s.Submit()
	v = s.View()
	require.NotNil(t, v.Score)
	assert.Equal(t, "0.00", v.ScoreDisplay)
	assert.Equal(t, "4", v.Questions[0].CorrectAnswer)
	assert.Len(t, v.Results, 4)
}

func TestCloseCancelsTasks(t *testing.T) {
	s, clock := startSession(Options{})
	clock.Advance(600 * time.Second)
	require.Equal(t, 2, clock.Pending())

	s.Close()
	assert.Equal(t, 0, clock.Pending())
	assert.Equal(t, StatusRunning, s.Status())
}

func TestScoreWithoutQuestions(t *testing.T) {
	assert.Equal(t, float64(0), score(0, 0))
	assert.Equal(t, "33.33", FormatScore(score(1, 3)))
	assert.Equal(t, "100.00", FormatScore(score(5, 5)))
}

func TestFormatTime(t *testing.T) {
	tests := map[int]string{900: "15:00", 300: "05:00", 61: "01:01", 9: "00:09", 0: "00:00", -3: "00:00"}
	for in, want := range tests {
		assert.Equal(t, want, FormatTime(in))
	}
}
