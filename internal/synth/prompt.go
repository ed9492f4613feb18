// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/pdiddy/profile-engine/pkg/types"
)

const mapSystemPrompt = `You are a research analyst building a profile of a named person from cited evidence. You only state what the evidence supports, and you always attach the citation marker of the supporting evidence.`

const reduceSystemPrompt = `You are a research writer assembling a professional profile section from analyst notes. You write plain prose paragraphs separated by blank lines. You never invent citation markers: you only reuse markers that appear in the notes.`

// mapPromptTmpl turns one evidence chunk into cited notes.
var mapPromptTmpl = template.Must(template.New("map").Parse(`Subject: {{.Name}}
Section focus: {{.Focus}}

Below are evidence entries. Each begins with its citation marker in the form [E:abcdef123456].

Write concise factual notes relevant to the section focus. Every note must end with the citation marker of the evidence entry it came from, copied exactly. Skip evidence irrelevant to the focus. Do not speculate beyond the evidence.

Evidence:
{{.Evidence}}`))

// reducePromptTmpl combines map notes into section prose. The directive
// grows stricter with each retry attempt.
var reducePromptTmpl = template.Must(template.New("reduce").Parse(`Subject: {{.Name}}
Section title: {{.Title}}
Section focus: {{.Focus}}

Combine the notes below into a coherent profile section of two to four paragraphs, separated by blank lines.

{{.Directive}}

Notes:
{{.Notes}}`))

// retryDirectives is the escalation ladder: index attempt-1, clamped to
// the last entry.
var retryDirectives = []string{
	`Every paragraph must include at least one citation marker in the form [E:abcdef123456], copied exactly from the notes.`,

	`STRICT REQUIREMENT: every single paragraph must contain at least one citation marker in the form [E:abcdef123456]. Only reuse markers that appear verbatim in the notes. A paragraph without a marker is invalid. Do not write headings, lists, or any text outside the paragraphs.`,

	`FINAL ATTEMPT, STRICT OUTPUT CONTRACT: produce ONLY prose paragraphs separated by blank lines. Each paragraph MUST end with one or more citation markers of the form [E:abcdef123456] copied character-for-character from the notes. If a statement has no supporting marker in the notes, omit the statement entirely.`,
}

func renderMapPrompt(person types.Person, spec SectionSpec, chunk evidenceChunk) (string, error) {
	var buf bytes.Buffer
	err := mapPromptTmpl.Execute(&buf, struct {
		Name, Focus, Evidence string
	}{person.CanonicalName, spec.Focus, chunk.String()})
	return buf.String(), err
}

func renderReducePrompt(person types.Person, spec SectionSpec, notes []string, attempt int) (string, error) {
	idx := attempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(retryDirectives) {
		idx = len(retryDirectives) - 1
	}

	var buf bytes.Buffer
	err := reducePromptTmpl.Execute(&buf, struct {
		Name, Title, Focus, Directive, Notes string
	}{person.CanonicalName, spec.Title, spec.Focus, retryDirectives[idx], strings.Join(notes, "\n\n")})
	return buf.String(), err
}
