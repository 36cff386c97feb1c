package openai

import "fmt"

const summaryPromptTemplate = `You maintain the running memory of a customer support chat.

You will be given the previous summary (possibly empty) and the newest part of the
transcript. Write a single updated summary that replaces the previous one.

Rules:
- Write plain prose in the third person, at most %d words.
- Keep facts the assistant will need later: the visitor's name, contact details they
  volunteered, what they asked for, what was promised, and anything left unresolved.
- Drop greetings, small talk and repeated questions.
- Do not invent details that are not in the summary or the transcript.
- Output only the summary. No preamble, headings, lists or quotes.`

const summaryInputTemplate = `Previous summary:
%s

Transcript:
%s`

// buildSystemPrompt creates the system prompt with the word limit embedded.
func buildSystemPrompt(maxWords int) string {
	return fmt.Sprintf(summaryPromptTemplate, maxWords)
}

// buildUserPrompt combines the previous summary and the rendered transcript.
func buildUserPrompt(previous, transcript string) string {
	if previous == "" {
		previous = "(none)"
	}
	return fmt.Sprintf(summaryInputTemplate, previous, transcript)
}
