package suggest

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxPromptCode bounds how much submitted code goes into the prompt.
const maxPromptCode = 2000

const systemPrompt = `You are an expert competitive programming mentor and debugging assistant.
Analyze code issues with precision and provide specific, actionable fixes.
Focus on the most critical issue first, especially syntax and compilation errors.`

// BuildPrompt renders the user prompt for the augmented tier.
func BuildPrompt(concept, code, errText, language string, confidence float64) string {
	if len(code) > maxPromptCode {
		cut := maxPromptCode
		for cut > 0 && !utf8.RuneStart(code[cut]) {
			cut--
		}
		code = code[:cut] + "\n... (truncated)"
	}
	if strings.TrimSpace(errText) == "" {
		errText = "No specific error provided"
	}

	return fmt.Sprintf(`Language: %s

Code:
`+"```"+`
%s
`+"```"+`

Error/Issue: %s
Detected Concept: %s
Confidence: %d%%

Please provide:
1. **Root Cause**: What exactly is wrong
2. **Fix**: Specific code correction needed
3. **Explanation**: Why this error occurs
4. **Prevention**: How to avoid this in future

Be concise and focus on the primary issue.`,
		language, code, errText, concept, int(confidence*100))
}
