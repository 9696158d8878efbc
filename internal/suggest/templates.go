package suggest

import (
	"regexp"
	"strings"
)

// conceptHint is the deterministic-tier advice for one concept.
type conceptHint struct {
	advice string
	tip    string
}

var conceptHints = map[string]conceptHint{
	"Binary Search": {
		advice: "**Binary Search Issues:**\n• Check loop condition (left <= right vs left < right)\n• Use `mid = left + (right - left) / 2` to prevent overflow\n• Ensure the array is sorted before searching\n• Handle edge cases: empty array, single element\n• Verify the search condition logic",
		tip:    "Always verify your array is sorted before binary search!",
	},
	"Dynamic Programming": {
		advice: "**DP Debugging Checklist:**\n• Verify base cases are correct\n• Check state transitions and the recurrence relation\n• Ensure you're not accessing out-of-bounds indices\n• Consider bottom-up vs top-down\n• Check whether you need a 1D or 2D DP array",
		tip:    "Draw out small examples to verify your DP logic!",
	},
	"Graph Traversal": {
		advice: "**Graph Traversal Checklist:**\n• Mark nodes visited before enqueueing, not after\n• Handle disconnected components\n• Check adjacency list construction for both directions on undirected graphs\n• Guard against revisiting nodes (infinite loops)\n• Verify start node initialization",
		tip:    "Print the traversal order on a tiny graph to check correctness!",
	},
	"Sorting": {
		advice: "**Sorting Issues:**\n• Confirm the comparator is consistent and transitive\n• Check for off-by-one errors in partition/merge bounds\n• Consider stability requirements\n• Watch for integer overflow when comparing differences\n• Verify the data is fully sorted before depending on it",
		tip:    "Test with already-sorted, reverse-sorted, and duplicate-heavy inputs!",
	},
	"Array Manipulation": {
		advice: "**Array Debugging:**\n• Check index bounds on every access\n• Verify loop ranges cover exactly the intended elements\n• Watch for aliasing when copying or slicing\n• Handle empty arrays explicitly\n• Confirm in-place updates don't clobber values you still need",
		tip:    "Off-by-one errors hide at the first and last index — test both!",
	},
	"String Processing": {
		advice: "**String Processing Issues:**\n• Mind character encoding and multi-byte characters\n• Check empty-string and single-character inputs\n• Verify split/join delimiters match the data\n• Strings may be immutable in your language — build, don't mutate\n• Watch index arithmetic on substrings",
		tip:    "Print intermediate strings with visible delimiters to spot whitespace bugs!",
	},
	"Tree Algorithms": {
		advice: "**Tree Debugging:**\n• Always handle the nil/None node base case first\n• Verify left/right child assignments aren't swapped\n• Check recursion returns propagate up correctly\n• Consider skewed trees for stack depth\n• Distinguish node values from node references",
		tip:    "A three-node tree exposes most traversal bugs!",
	},
	"Greedy Algorithm": {
		advice: "**Greedy Checklist:**\n• Prove (or at least test) the greedy choice property\n• Verify the sort key matches the selection criterion\n• Check tie handling between equal candidates\n• Compare against brute force on small inputs\n• Watch for cases where a locally best choice blocks the global optimum",
		tip:    "If greedy feels too easy, test it against brute force on small cases!",
	},
	"Backtracking": {
		advice: "**Backtracking Issues:**\n• Undo every state change when unwinding\n• Check the pruning condition isn't discarding valid branches\n• Verify the base case records or returns the solution\n• Copy mutable paths before storing them in results\n• Bound the recursion depth for the input size",
		tip:    "Forgetting to undo a move is the classic backtracking bug!",
	},
	"Mathematics": {
		advice: "**Math Debugging:**\n• Watch for integer overflow in intermediate products\n• Check division-by-zero and negative-modulo behavior\n• Mind floating point comparisons — use an epsilon\n• Verify formula edge cases (0, 1, negative inputs)\n• Apply the modulus at every step, not only at the end",
		tip:    "Verify your formula by hand on the smallest inputs first!",
	},
	"General Programming": {
		advice: "**General Debugging:**\n• Add debug prints to trace execution\n• Test with simple inputs first\n• Check variable types and values\n• Verify logic step by step\n• Consider edge cases",
		tip:    "Break down complex problems into smaller parts!",
	},
}

// unknownHint backs the sentinel concept when classification failed.
var unknownHint = conceptHint{
	advice: "**Unable to pin down the algorithm — general checklist:**\n• Re-read the error message and find the first failing line\n• Test with the smallest input that reproduces the problem\n• Check variable initialization and loop bounds\n• Simplify until the bug disappears, then add code back",
	tip:    "Reduce the code to a minimal failing example — the bug usually surfaces on its own!",
}

var (
	defineSemicolonRe = regexp.MustCompile(`#define\s+\w+[^\n]*;`)
	missingColonRe    = regexp.MustCompile(`(?m)^\s*(if|for|while|def|class|elif|else|try|except|with)\b[^:\n]*[^:\s]\s*$`)
	overflowMidRe     = regexp.MustCompile(`\(\s*\w+\s*\+\s*\w+\s*\)\s*/\s*2`)
	looseBoundRe      = regexp.MustCompile(`for\s*\([^)]*<=\s*n\b`)
)

// detectDiagnostics scans code and error text for concrete, fixable
// signatures and returns targeted one-line fixes. Purely textual; no
// compiler is invoked.
func detectDiagnostics(code, errText, language string) []string {
	var out []string

	if defineSemicolonRe.MatchString(code) {
		out = append(out, "Remove the semicolon from the `#define` — preprocessor directives are not statements.")
	}
	if language == "python" && missingColonRe.MatchString(code) {
		out = append(out, "Add the missing `:` after the control-structure header.")
	}
	if overflowMidRe.MatchString(code) {
		out = append(out, "`(left + right) / 2` can overflow — use `left + (right - left) / 2` instead.")
	}
	if looseBoundRe.MatchString(code) {
		out = append(out, "Loop condition `<= n` walks past the last index on 0-indexed arrays — use `< n`.")
	}
	if mismatched(code) {
		out = append(out, "Brackets are unbalanced — count your `()`, `[]`, and `{}` pairs.")
	}

	lowErr := strings.ToLower(errText)
	switch {
	case strings.Contains(lowErr, "indentationerror"):
		out = append(out, "Fix the indentation — use a consistent 4 spaces per level.")
	case strings.Contains(lowErr, "segmentation fault"), strings.Contains(lowErr, "segfault"):
		out = append(out, "Segfaults usually mean an out-of-bounds access or nil dereference — check every index and pointer.")
	case strings.Contains(lowErr, "time limit"), strings.Contains(lowErr, "tle"):
		out = append(out, "Time limit exceeded — reconsider the algorithmic complexity before micro-optimizing.")
	}

	return out
}

// mismatched reports whether the code has unbalanced brackets.
func mismatched(code string) bool {
	pairs := map[rune]rune{')': '(', ']': '[', '}': '{'}
	var stack []rune

	for _, ch := range code {
		switch ch {
		case '(', '[', '{':
			stack = append(stack, ch)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[ch] {
				return true
			}
			stack = stack[:len(stack)-1]
		}
	}
	return len(stack) > 0
}

// Fallback composes the deterministic-tier suggestion for a concept.
// It always succeeds.
func Fallback(concept, code, errText, language string) string {
	hint, ok := conceptHints[concept]
	if !ok {
		hint = unknownHint
	}

	var b strings.Builder

	if diags := detectDiagnostics(code, errText, language); len(diags) > 0 {
		b.WriteString("**Detected issues:**\n")
		for _, d := range diags {
			b.WriteString("• ")
			b.WriteString(d)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if strings.TrimSpace(errText) != "" {
		b.WriteString("**Error Analysis:** ")
		b.WriteString(strings.TrimSpace(errText))
		b.WriteString("\n\n")
	}

	b.WriteString(hint.advice)
	b.WriteString("\n\nTip: ")
	b.WriteString(hint.tip)

	return b.String()
}
