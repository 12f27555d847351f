package rules

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/lumen-edu/lumen-api/internal/models"
)

func TestEvaluateCodeAcceptsOnlyMarker(t *testing.T) {
	cases := []struct {
		name    string
		stdout  string
		correct bool
	}{
		{"exact marker", "ok", true},
		{"marker with trailing newline", "ok\n", true},
		{"marker with crlf", "ok\r\n", true},
		{"empty output", "", false},
		{"marker with leading space", " ok", false},
		{"marker with extra text", "ok\nextra", false},
		{"uppercase marker", "OK", false},
		{"failure report", "test 2 failed: got 4 want 5", false},
		{"traceback", "Traceback (most recent call last):", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.correct, EvaluateCode(tc.stdout))
		})
	}
}

func TestFirstFailure(t *testing.T) {
	index, output := FirstFailure("test 3 failed: got 4 want 5\ntest 7 failed: crash")
	require.Equal(t, 3, index)
	require.Equal(t, "got 4 want 5", output)

	index, output = FirstFailure("test 12 failed")
	require.Equal(t, 12, index)
	require.Equal(t, "", output)

	index, output = FirstFailure("SyntaxError: invalid syntax")
	require.Equal(t, NoFailedTest, index)
	require.Equal(t, "SyntaxError: invalid syntax", output)
}

func TestEvaluatePoll(t *testing.T) {
	task := models.PollTask{Options: []models.PollOption{
		{ID: 1, Label: "yes", IsCorrect: true},
		{ID: 2, Label: "no", IsCorrect: false},
	}}

	require.True(t, EvaluatePoll(task, 1))
	require.False(t, EvaluatePoll(task, 2))
	require.False(t, EvaluatePoll(task, 99), "unknown option is incorrect, not an error")
}

func TestEvaluateTextInputIsVerbatim(t *testing.T) {
	task := models.TextInputTask{CorrectAnswers: datatypes.NewJSONSlice([]string{"Paris", "paris city"})}

	require.True(t, EvaluateTextInput(task, "Paris"))
	require.False(t, EvaluateTextInput(task, "paris"), "matching is case-sensitive")
	require.False(t, EvaluateTextInput(task, "Paris "), "whitespace is not trimmed")
	require.False(t, EvaluateTextInput(task, ""))
}
