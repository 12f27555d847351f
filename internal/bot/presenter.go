package bot

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/lumen-edu/lumen-api/internal/dto"
	"github.com/lumen-edu/lumen-api/pkg/telegram"
)

// presenter renders platform content as Telegram HTML messages. Course and
// task bodies are author-supplied, so they pass through a sanitizer that
// keeps only the tags Telegram renders.
type presenter struct {
	policy *bluemonday.Policy
}

func newPresenter() *presenter {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("b", "strong", "i", "em", "u", "s", "code", "pre")
	policy.AllowAttrs("href").OnElements("a")
	return &presenter{policy: policy}
}

func (p *presenter) sanitize(s string) string {
	return p.policy.Sanitize(s)
}

func (p *presenter) welcome(fullName string) string {
	name := html.EscapeString(strings.TrimSpace(fullName))
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hi, <b>%s</b>!\n\nBrowse the catalog with /courses and solve tasks right here in the chat.", name)
}

func (p *presenter) help() string {
	return strings.Join([]string{
		"<b>Commands</b>",
		"/start - register and see the welcome message",
		"/courses - browse the course catalog",
		"/cancel - abandon the answer you are typing",
	}, "\n")
}

func (p *presenter) courseList(courses []dto.CourseResponse) (string, [][]telegram.InlineKeyboardButton) {
	if len(courses) == 0 {
		return "No courses published yet.", nil
	}

	keyboard := make([][]telegram.InlineKeyboardButton, 0, len(courses))
	for _, course := range courses {
		keyboard = append(keyboard, []telegram.InlineKeyboardButton{{
			Text:         course.Title,
			CallbackData: fmt.Sprintf("course:%d", course.ID),
		}})
	}
	return "<b>Courses</b>\nPick one to see its tasks.", keyboard
}

func (p *presenter) course(course dto.CourseResponse) (string, [][]telegram.InlineKeyboardButton) {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(course.Title))
	if course.Description != "" {
		b.WriteString("\n")
		b.WriteString(p.sanitize(course.Description))
		b.WriteString("\n")
	}

	keyboard := [][]telegram.InlineKeyboardButton{{
		{Text: "Tasks", CallbackData: fmt.Sprintf("tasks:%d", course.ID)},
	}}
	return b.String(), keyboard
}

func (p *presenter) taskList(summaries []dto.TaskSummary) (string, [][]telegram.InlineKeyboardButton) {
	if len(summaries) == 0 {
		return "This course has no tasks yet.", nil
	}

	keyboard := make([][]telegram.InlineKeyboardButton, 0, len(summaries))
	for _, summary := range summaries {
		keyboard = append(keyboard, []telegram.InlineKeyboardButton{{
			Text:         fmt.Sprintf("%s %s", kindBadge(summary.Kind), summary.Title),
			CallbackData: fmt.Sprintf("task:%s:%d", summary.Kind, summary.ID),
		}})
	}
	return "<b>Tasks</b>", keyboard
}

func kindBadge(kind string) string {
	switch kind {
	case "code":
		return "[code]"
	case "poll":
		return "[poll]"
	case "text_input":
		return "[text]"
	case "theory":
		return "[read]"
	default:
		return "[task]"
	}
}

func (p *presenter) codeTask(task dto.CodeTaskResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n\n", html.EscapeString(task.Title))
	b.WriteString(p.sanitize(task.Prompt))
	if task.PreparedCode != "" {
		fmt.Fprintf(&b, "\n\n<pre>%s</pre>", html.EscapeString(task.PreparedCode))
	}
	if task.AttemptsLimit > 0 {
		fmt.Fprintf(&b, "\n\nAttempts limit: %d", task.AttemptsLimit)
	}
	b.WriteString("\n\nSend your solution as a message.")
	return b.String()
}

func (p *presenter) pollTask(task dto.PollTaskResponse) (string, [][]telegram.InlineKeyboardButton) {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n\n", html.EscapeString(task.Title))
	b.WriteString(p.sanitize(task.Prompt))

	keyboard := make([][]telegram.InlineKeyboardButton, 0, len(task.Options))
	for _, option := range task.Options {
		keyboard = append(keyboard, []telegram.InlineKeyboardButton{{
			Text:         option.Label,
			CallbackData: fmt.Sprintf("opt:%d:%d", task.ID, option.ID),
		}})
	}
	return b.String(), keyboard
}

func (p *presenter) textTask(task dto.TextInputTaskResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n\n", html.EscapeString(task.Title))
	b.WriteString(p.sanitize(task.Prompt))
	if task.AttemptsLimit > 0 {
		fmt.Fprintf(&b, "\n\nAttempts limit: %d", task.AttemptsLimit)
	}
	b.WriteString("\n\nSend your answer as a message.")
	return b.String()
}

func (p *presenter) theoryTask(task dto.TheoryTaskResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n\n", html.EscapeString(task.Title))
	b.WriteString(p.sanitize(task.Content))
	return b.String()
}

func (p *presenter) gradeResult(result dto.GradeResult) string {
	var b strings.Builder
	if result.IsCorrect {
		b.WriteString("✅ <b>Correct!</b>")
	} else {
		b.WriteString("❌ <b>Incorrect.</b>")
		if result.TaskKind == "code" && result.FailedTestIndex >= 0 {
			fmt.Fprintf(&b, "\nTest %d failed", result.FailedTestIndex)
			if result.FailedTestOutput != "" {
				fmt.Fprintf(&b, ":\n<pre>%s</pre>", html.EscapeString(result.FailedTestOutput))
			}
		}
	}

	fmt.Fprintf(&b, "\nAttempt %d", result.AttemptNumber)
	if result.AttemptsRemaining != dto.UnlimitedAttempts {
		fmt.Fprintf(&b, ", %d remaining", result.AttemptsRemaining)
	}
	return b.String()
}

func (p *presenter) executionFailed(timedOut bool) string {
	if timedOut {
		return "⏱ Your code exceeded the time limit. The attempt was not counted, fix it and send again."
	}
	return "⚠️ Your code crashed before producing a verdict. The attempt was not counted, fix it and send again."
}

func (p *presenter) attemptsExhausted() string {
	return "You have used all attempts for this task."
}
