// Package rules holds the pure grading policies of the platform. Nothing in
// here touches storage or the sandbox; verdicts are derived from evaluation
// output alone.
package rules

import (
	"regexp"
	"strings"

	"github.com/lumen-edu/lumen-api/internal/models"
)

// SuccessMarker is the only sandbox output accepted as a passing code run.
// The hidden test harness prints it once when every test passes.
const SuccessMarker = "ok"

// NoFailedTest is the failing-test index reported when no specific test can
// be attributed to an incorrect run.
const NoFailedTest = -1

var failedTestPattern = regexp.MustCompile(`(?m)^test (\d+) failed(?::\s*(.*))?$`)

// EvaluateCode decides the verdict of a code run from its captured stdout.
// The policy is strictly binary: the canonical marker means correct, anything
// else (empty output, error text, partial reports) means incorrect. A single
// trailing line terminator from the sandbox is tolerated.
func EvaluateCode(stdout string) bool {
	return trimTrailingNewline(stdout) == SuccessMarker
}

// FirstFailure extracts the first failing test index and its output from a
// non-passing run. When the output carries no attributable failure the index
// is NoFailedTest and the whole output is returned as-is.
func FirstFailure(stdout string) (int, string) {
	match := failedTestPattern.FindStringSubmatch(stdout)
	if match == nil {
		return NoFailedTest, stdout
	}

	index := 0
	for _, digit := range match[1] {
		index = index*10 + int(digit-'0')
	}
	return index, match[2]
}

// EvaluatePoll reports whether the selected option is the correct one.
// An option id outside the task's option set is an incorrect answer, not an
// error.
func EvaluatePoll(task models.PollTask, optionID uint) bool {
	option, ok := task.Option(optionID)
	return ok && option.IsCorrect
}

// EvaluateTextInput reports whether the answer is a member of the task's
// accepted set. Comparison is verbatim: case-sensitive, whitespace preserved.
func EvaluateTextInput(task models.TextInputTask, answer string) bool {
	for _, accepted := range task.CorrectAnswers {
		if accepted == answer {
			return true
		}
	}
	return false
}

func trimTrailingNewline(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
