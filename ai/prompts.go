package ai

import "strings"

// Prompt templates. Placeholders use the {name} convention and are filled
// by renderPrompt.

const sectionPromptTemplate = `Evaluate the "{section}" dimension of the following product idea.

Idea title: {title}
Idea summary: {summary}
Prior review notes: {prior_review}

Score the dimension from 0 to 100, explain your reasoning, and propose
concrete next actions. Respond with a JSON object:
{"score": <0-100>, "summary": "<one paragraph of reasoning>", "actions": ["<step>", ...]}`

const suggestionPromptTemplate = `The following product idea scored poorly on some evaluation pillars.

Idea title: {title}
Idea summary: {summary}

Weak pillars (JSON):
{weaknesses}

For EACH weak pillar produce exactly one remediation suggestion. Respond
with a JSON array, one element per weak pillar, in the same order:
[{"pillar": "<pillar id>", "issue": "<what is wrong>", "rationale": "<why it matters, referencing the diagnostics above>", "suggestion": "<what to change>"}]`

const refinementPromptTemplate = `Rewrite the following product overview to strengthen its weakest
evaluation pillar.

Target pillar: {pillar}
Current score: {score}
Diagnostics: {diagnostics}

Current overview (JSON):
{overview}

Return a full replacement overview, a list of section-level diffs, and a
proposed score delta for the target pillar. Respond with a JSON object:
{"overview": {<same shape as the input overview>}, "differences": [{"section": "<field>", "before": "<old text>", "after": "<new text>"}], "score_delta": <number>}`

// renderPrompt replaces {placeholder} keys with values.
func renderPrompt(template string, replacements map[string]string) string {
	result := template
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, "{"+placeholder+"}", value)
	}
	return result
}
