package essay

import "fmt"

const systemPrompt = `You are an experienced college-admissions essay reviewer.
You give honest, specific, encouraging feedback on application essays.
Always answer in exactly the delimited format you are asked for, with no
markdown fences and no extra commentary outside the sections.`

const responseFormat = `---HIGHLIGHTED_PARTS---
<exact excerpt copied verbatim from the essay>|||<your comment on that excerpt>
(one pair per line, 3 to 6 pairs)
---OVERALL_FEEDBACK---
<one or two paragraphs of overall feedback>
---RATINGS---
clarity: <1-10>
structure: <1-10>
voice: <1-10>
grammar: <1-10>
relevance: <1-10>
impact: <1-10>
overall: <1-10>`

// BuildPrompt returns the system and user prompts for one analysis run.
func BuildPrompt(essayText string) (string, string) {
	user := fmt.Sprintf(
		"Review the following college application essay. Respond in exactly this format:\n\n%s\n\nEssay:\n%s",
		responseFormat, essayText,
	)
	return systemPrompt, user
}
