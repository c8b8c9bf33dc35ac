package assistant

import (
	"fmt"
	"strings"

	"glassplanner/internal/model"
)

const (
	noDescription       = "No specific description provided"
	fallbackSummary     = "Could not generate summary."
	dueDateLayout       = "Mon Jan 02 2006"
	emptySummaryMessage = "No specific details provided in the calendar event."
)

// SystemInstruction is the tutor context given to a chat about a.
func SystemInstruction(a model.Assignment) string {
	desc := a.Description
	if strings.TrimSpace(desc) == "" {
		desc = noDescription
	}
	return fmt.Sprintf(`You are an expert academic tutor and study companion.
The student is working on the following assignment:

Class: %s
Assignment Title: %q
Due Date: %s
Description/Details: %q

Your goal is to help the student complete this assignment.
- Break down complex tasks into smaller steps.
- Explain concepts related to the assignment.
- Help brainstorm ideas if it's a creative task.
- Do NOT do the work for them (e.g., don't write the whole essay), but guide them.
- Be encouraging, concise, and organized.`,
		a.Course, a.Summary, a.StartDate.UTC().Format(dueDateLayout), desc)
}

// SummaryPrompt asks for a short bulleted task list for a.
func SummaryPrompt(a model.Assignment) string {
	return fmt.Sprintf(`You are a helpful academic assistant.
I have a school assignment titled %q.
The raw description is: %q.

Please summarize this into a concise, organized bulleted list of tasks or requirements.
If the description is empty or vague, just say %q
Keep it short and actionable. Do not use markdown headers, just bullet points.`,
		a.Summary, a.Description, emptySummaryMessage)
}

// Greeting is the first model turn of a new chat.
func Greeting(a model.Assignment) string {
	return fmt.Sprintf("Hi! I've loaded the details for %q. How would you like to tackle this assignment today?", a.Summary)
}
