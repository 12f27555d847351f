package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lumen-edu/lumen-api/internal/dto"
	"github.com/lumen-edu/lumen-api/internal/events"
	"github.com/lumen-edu/lumen-api/internal/models"
	"github.com/lumen-edu/lumen-api/internal/repository"
	"github.com/lumen-edu/lumen-api/internal/rules"
	"github.com/lumen-edu/lumen-api/pkg/playground"
)

type stubTaskRepo struct {
	codeTask models.CodeTask
	codeErr  error
	pollTask models.PollTask
	pollErr  error
	textTask models.TextInputTask
	textErr  error
}

func (s stubTaskRepo) GetCodeTask(context.Context, uint) (models.CodeTask, error) {
	return s.codeTask, s.codeErr
}

func (s stubTaskRepo) GetPollTask(context.Context, uint) (models.PollTask, error) {
	return s.pollTask, s.pollErr
}

func (s stubTaskRepo) GetTextInputTask(context.Context, uint) (models.TextInputTask, error) {
	return s.textTask, s.textErr
}

func (s stubTaskRepo) GetTheoryTask(context.Context, uint) (models.TheoryTask, error) {
	return models.TheoryTask{}, gorm.ErrRecordNotFound
}

func (s stubTaskRepo) ListForCourse(context.Context, uint) (repository.CourseTasks, error) {
	return repository.CourseTasks{}, nil
}

type stubSubmissionRepo struct {
	count    int64
	countErr error
	saveErr  error

	savedCode []models.CodeSubmission
	savedPoll []models.PollSubmission
	savedText []models.TextInputSubmission
}

func (s *stubSubmissionRepo) SaveForCodeTask(_ context.Context, submission *models.CodeSubmission) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.savedCode = append(s.savedCode, *submission)
	return nil
}

func (s *stubSubmissionRepo) SaveForPollTask(_ context.Context, submission *models.PollSubmission) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.savedPoll = append(s.savedPoll, *submission)
	return nil
}

func (s *stubSubmissionRepo) SaveForTextInputTask(_ context.Context, submission *models.TextInputSubmission) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.savedText = append(s.savedText, *submission)
	return nil
}

func (s *stubSubmissionRepo) CountForCodeTask(context.Context, uint, uint) (int64, error) {
	return s.count, s.countErr
}

func (s *stubSubmissionRepo) CountForPollTask(context.Context, uint, uint) (int64, error) {
	return s.count, s.countErr
}

func (s *stubSubmissionRepo) CountForTextInputTask(context.Context, uint, uint) (int64, error) {
	return s.count, s.countErr
}

func (s *stubSubmissionRepo) ListCodeSubmissions(context.Context, uint, uint) ([]models.CodeSubmission, error) {
	return s.savedCode, nil
}

func (s *stubSubmissionRepo) ListPollSubmissions(context.Context, uint, uint) ([]models.PollSubmission, error) {
	return s.savedPoll, nil
}

func (s *stubSubmissionRepo) ListTextInputSubmissions(context.Context, uint, uint) ([]models.TextInputSubmission, error) {
	return s.savedText, nil
}

type passthroughTx struct{}

func (passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type stubSandbox struct {
	stdout  string
	stderr  string
	execErr error

	program string
	closed  bool
}

func (s *stubSandbox) ExecuteCode(_ context.Context, code string) (string, string, error) {
	s.program = code
	return s.stdout, s.stderr, s.execErr
}

func (s *stubSandbox) Close() error {
	s.closed = true
	return nil
}

type stubFactory struct {
	sandbox   *stubSandbox
	createErr error

	created int
	timeout time.Duration
}

func (f *stubFactory) Create(_ context.Context, timeout time.Duration, _ string) (playground.Instance, error) {
	f.created++
	f.timeout = timeout
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.sandbox, nil
}

type recordingPublisher struct {
	events []events.SubmissionGraded
}

func (p *recordingPublisher) SubmissionGraded(_ context.Context, event events.SubmissionGraded) {
	p.events = append(p.events, event)
}

func newGradingFixture(tasks stubTaskRepo, submissions *stubSubmissionRepo, factory *stubFactory) (GradingService, *recordingPublisher) {
	publisher := &recordingPublisher{}
	svc := NewGradingService(
		tasks,
		submissions,
		passthroughTx{},
		factory,
		publisher,
		validator.New(validator.WithRequiredStructEnabled()),
		zerolog.Nop(),
	)
	return svc, publisher
}

func TestGradeCodeCorrect(t *testing.T) {
	task := models.CodeTask{
		ID:            7,
		CourseID:      1,
		PreparedCode:  "def add(a, b):",
		HiddenTests:   "assert add(1, 1) == 2\nprint('ok')",
		AttemptsLimit: 3,
	}
	submissions := &stubSubmissionRepo{}
	sandbox := &stubSandbox{stdout: "ok\n"}
	factory := &stubFactory{sandbox: sandbox}

	svc, publisher := newGradingFixture(stubTaskRepo{codeTask: task}, submissions, factory)

	result, err := svc.GradeCode(context.Background(), 42, dto.CodeGradeRequest{TaskID: 7, Source: "    return a + b"})
	require.NoError(t, err)

	require.True(t, result.IsCorrect)
	require.Equal(t, "code", result.TaskKind)
	require.Equal(t, 1, result.AttemptNumber)
	require.Equal(t, 2, result.AttemptsRemaining)
	require.Equal(t, rules.NoFailedTest, result.FailedTestIndex)

	require.Len(t, submissions.savedCode, 1)
	saved := submissions.savedCode[0]
	require.Equal(t, uint(42), saved.UserID)
	require.Equal(t, uint(7), saved.TaskID)
	require.True(t, saved.IsCorrect)
	require.Equal(t, 1, saved.AttemptNumber)

	require.True(t, sandbox.closed)
	require.Equal(t, "def add(a, b):\n\n    return a + b\n\nassert add(1, 1) == 2\nprint('ok')", sandbox.program)

	require.Len(t, publisher.events, 1)
	require.True(t, publisher.events[0].IsCorrect)
}

func TestGradeCodeFailedTestReported(t *testing.T) {
	task := models.CodeTask{ID: 7}
	submissions := &stubSubmissionRepo{count: 4}
	sandbox := &stubSandbox{stdout: "test 2 failed: expected 4, got 5\n"}
	factory := &stubFactory{sandbox: sandbox}

	svc, _ := newGradingFixture(stubTaskRepo{codeTask: task}, submissions, factory)

	result, err := svc.GradeCode(context.Background(), 42, dto.CodeGradeRequest{TaskID: 7, Source: "return 5"})
	require.NoError(t, err)

	require.False(t, result.IsCorrect)
	require.Equal(t, 2, result.FailedTestIndex)
	require.Equal(t, "expected 4, got 5", result.FailedTestOutput)
	// No limit configured, so attempts never run out.
	require.Equal(t, 5, result.AttemptNumber)
	require.Equal(t, dto.UnlimitedAttempts, result.AttemptsRemaining)

	require.Len(t, submissions.savedCode, 1)
	require.False(t, submissions.savedCode[0].IsCorrect)
}

func TestGradeCodeAttemptsExhausted(t *testing.T) {
	task := models.CodeTask{ID: 7, AttemptsLimit: 3}
	submissions := &stubSubmissionRepo{count: 3}
	factory := &stubFactory{sandbox: &stubSandbox{stdout: "ok"}}

	svc, publisher := newGradingFixture(stubTaskRepo{codeTask: task}, submissions, factory)

	// Rejection is repeatable: no attempt is consumed, nothing is stored.
	for i := 0; i < 2; i++ {
		_, err := svc.GradeCode(context.Background(), 42, dto.CodeGradeRequest{TaskID: 7, Source: "x"})
		require.ErrorIs(t, err, ErrAttemptsLimitExceeded)
	}

	require.Zero(t, factory.created)
	require.Empty(t, submissions.savedCode)
	require.Empty(t, publisher.events)
}

func TestGradeCodeSandboxFailureNotPersisted(t *testing.T) {
	task := models.CodeTask{ID: 7, AttemptsLimit: 3, TimeoutSec: 2}
	submissions := &stubSubmissionRepo{}
	sandbox := &stubSandbox{execErr: &playground.ExecError{TimedOut: true}}
	factory := &stubFactory{sandbox: sandbox}

	svc, publisher := newGradingFixture(stubTaskRepo{codeTask: task}, submissions, factory)

	_, err := svc.GradeCode(context.Background(), 42, dto.CodeGradeRequest{TaskID: 7, Source: "while True: pass"})

	var invalid *CodeInvalidError
	require.ErrorAs(t, err, &invalid)
	require.True(t, invalid.TimedOut)
	require.NotErrorIs(t, err, ErrAttemptsLimitExceeded)

	require.Equal(t, 2*time.Second, factory.timeout)
	require.True(t, sandbox.closed)
	require.Empty(t, submissions.savedCode)
	require.Empty(t, publisher.events)
}

func TestGradeCodeTaskNotFound(t *testing.T) {
	submissions := &stubSubmissionRepo{}
	factory := &stubFactory{sandbox: &stubSandbox{}}

	svc, _ := newGradingFixture(stubTaskRepo{codeErr: gorm.ErrRecordNotFound}, submissions, factory)

	_, err := svc.GradeCode(context.Background(), 42, dto.CodeGradeRequest{TaskID: 999, Source: "x"})
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestGradePollVerdicts(t *testing.T) {
	task := models.PollTask{
		ID:       3,
		CourseID: 1,
		Options: []models.PollOption{
			{ID: 31, Label: "Paris", IsCorrect: true, Position: 1},
			{ID: 32, Label: "Lyon", Position: 2},
		},
	}

	cases := []struct {
		name     string
		optionID uint
		correct  bool
	}{
		{name: "correct option", optionID: 31, correct: true},
		{name: "wrong option", optionID: 32, correct: false},
		{name: "unknown option", optionID: 77, correct: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			submissions := &stubSubmissionRepo{}
			svc, _ := newGradingFixture(stubTaskRepo{pollTask: task}, submissions, &stubFactory{})

			result, err := svc.GradePoll(context.Background(), 42, dto.PollGradeRequest{TaskID: 3, OptionID: tc.optionID})
			require.NoError(t, err)
			require.Equal(t, tc.correct, result.IsCorrect)
			require.Equal(t, dto.UnlimitedAttempts, result.AttemptsRemaining)

			// Every poll answer lands in the log, wrong and unknown included.
			require.Len(t, submissions.savedPoll, 1)
			require.Equal(t, tc.correct, submissions.savedPoll[0].IsCorrect)
		})
	}
}

func TestGradeTextInputCaseSensitive(t *testing.T) {
	task := models.TextInputTask{
		ID:             5,
		CorrectAnswers: datatypes.JSONSlice[string]{"Paris", "paris city"},
		AttemptsLimit:  5,
	}

	cases := []struct {
		name    string
		answer  string
		correct bool
	}{
		{name: "exact match", answer: "Paris", correct: true},
		{name: "second accepted answer", answer: "paris city", correct: true},
		{name: "wrong case", answer: "paris", correct: false},
		{name: "trailing space", answer: "Paris ", correct: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			submissions := &stubSubmissionRepo{}
			svc, _ := newGradingFixture(stubTaskRepo{textTask: task}, submissions, &stubFactory{})

			result, err := svc.GradeTextInput(context.Background(), 42, dto.TextInputGradeRequest{TaskID: 5, Answer: tc.answer})
			require.NoError(t, err)
			require.Equal(t, tc.correct, result.IsCorrect)
			require.Equal(t, 4, result.AttemptsRemaining)
			require.Len(t, submissions.savedText, 1)
		})
	}
}

func TestGradeTextInputLimitEnforced(t *testing.T) {
	task := models.TextInputTask{
		ID:             5,
		CorrectAnswers: datatypes.JSONSlice[string]{"Paris"},
		AttemptsLimit:  2,
	}
	submissions := &stubSubmissionRepo{count: 2}

	svc, _ := newGradingFixture(stubTaskRepo{textTask: task}, submissions, &stubFactory{})

	_, err := svc.GradeTextInput(context.Background(), 42, dto.TextInputGradeRequest{TaskID: 5, Answer: "Paris"})
	require.ErrorIs(t, err, ErrAttemptsLimitExceeded)
	require.Empty(t, submissions.savedText)
}

func TestGradeCodeSaveFailurePropagates(t *testing.T) {
	task := models.CodeTask{ID: 7}
	submissions := &stubSubmissionRepo{saveErr: errors.New("disk full")}
	factory := &stubFactory{sandbox: &stubSandbox{stdout: "ok"}}

	svc, publisher := newGradingFixture(stubTaskRepo{codeTask: task}, submissions, factory)

	_, err := svc.GradeCode(context.Background(), 42, dto.CodeGradeRequest{TaskID: 7, Source: "x"})
	require.ErrorContains(t, err, "persist submission")
	require.Empty(t, publisher.events)
}
