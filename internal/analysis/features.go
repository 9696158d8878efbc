package analysis

import (
	"math"
	"regexp"
	"strings"
)

// FeatureSchema versions the shape of extracted feature vectors. A model
// trained against a different schema cannot score vectors produced here.
const FeatureSchema = 1

// Feature indices. The ordering is part of the schema and must not be
// reshuffled without bumping FeatureSchema.
const (
	featBinarySearch = iota
	featDynamicProgramming
	featGraph
	featSorting
	featArray
	featString
	featTree
	featGreedy
	featBacktracking
	featMath
	featLoopDepth
	featRecursion
	featIndexAccess
	featBranching
	featureDim
)

// FeatureVector is the model-consumable representation of a code
// submission. Values are asinh-squashed pattern counts, so they are
// non-negative and bounded enough for stable training.
type FeatureVector struct {
	Schema int
	Values []float64
}

// Dim returns the number of features in the vector.
func (fv FeatureVector) Dim() int { return len(fv.Values) }

var (
	lineCommentRe  = regexp.MustCompile(`(?m)(#|//).*$`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	dquoteRe       = regexp.MustCompile(`"[^"\n]*"`)
	squoteRe       = regexp.MustCompile(`'[^'\n]*'`)
	whitespaceRe   = regexp.MustCompile(`\s+`)

	indexAccessRe = regexp.MustCompile(`\w+\[`)
	branchRe      = regexp.MustCompile(`\b(if|else|elif|switch|case)\b`)
	loopRe        = regexp.MustCompile(`^\s*(for|while)\b`)

	funcDefRes = []*regexp.Regexp{
		regexp.MustCompile(`\bdef\s+(\w+)\s*\(`),              // python
		regexp.MustCompile(`\bfunction\s+(\w+)\s*\(`),         // javascript
		regexp.MustCompile(`(?m)\b(\w+)\s*\([^()]*\)\s*\{`),   // c/cpp/java/js
	}
)

// conceptPatterns maps each pattern-count feature to the signals that
// feed it. Patterns run against normalized (comment/string-stripped,
// lowercased, single-line) code so they work across languages.
var conceptPatterns = map[int][]*regexp.Regexp{
	featBinarySearch: compileAll(
		`\bbinary\b`, `\bmid\b`, `\bbisect\b`,
		`while\s+\w+\s*<=\s*\w+`,
		`\b(l|lo|low|left)\b\s*,?\s*\b(r|hi|high|right)\b`,
		`\bmid\s*=`,
	),
	featDynamicProgramming: compileAll(
		`\bdp\s*\[`, `\bmemo\b`, `\bcache\b`, `\btabulation\b`,
		`\bdp\b`, `\boptimal\b.*\bsub`,
	),
	featGraph: compileAll(
		`\bdfs\b`, `\bbfs\b`, `\bgraph\b`, `\bvisited\b`,
		`\badjacency\b`, `\badj\b`, `\bedge(s)?\b`, `\bqueue\b`, `\bneighbor`,
	),
	featSorting: compileAll(
		`\bsort(ed)?\s*\(`, `\.sort\b`, `\bquicksort\b`, `\bmergesort\b`,
		`\bheapsort\b`, `\bbubble\b`, `\bpartition\b`,
	),
	featArray: compileAll(
		`\barray\b`, `\blist\b`, `\bappend\s*\(`, `\bpush_back\b`,
		`\bslice\b`, `\bvector\s*<`,
	),
	featString: compileAll(
		`\bstring\b`, `\bstr\b`, `\bchar\b`, `\bsubstring\b`,
		`\bsplit\s*\(`, `\bjoin\s*\(`, `\bstrlen\b`,
	),
	featTree: compileAll(
		`\btree\b`, `\broot\b`, `\bnode\b`, `\bparent\b`,
		`\bchild(ren)?\b`, `\bleaf\b`, `\.left\b`, `\.right\b`,
	),
	featGreedy: compileAll(
		`\bgreedy\b`, `\bminimum\b`, `\bmaximum\b`, `\bmin\s*\(`,
		`\bmax\s*\(`, `\bthreshold\b`,
	),
	featBacktracking: compileAll(
		`\bbacktrack`, `\bpermut`, `\bcombinat`, `\bsolve\s*\(`,
		`\bundo\b`, `\bplace\b.*\bqueen`,
	),
	featMath: compileAll(
		`\bmath\b`, `\bsqrt\b`, `\bpow\s*\(`, `\bgcd\b`, `\bmodulo\b`,
		`\bprime\b`, `\bfactorial\b`, `%\s*\w+`, `\*\*`,
	),
}

func compileAll(patterns ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		res[i] = regexp.MustCompile(p)
	}
	return res
}

// Extractor turns raw code into feature vectors. It is stateless, so
// extraction is deterministic and safe for concurrent use.
type Extractor struct{}

// NewExtractor creates a feature extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract computes the feature vector for a code submission. It never
// fails: unrecognized languages and degenerate inputs produce a valid
// (possibly all-zero) vector.
func (e *Extractor) Extract(code, language string) FeatureVector {
	values := make([]float64, featureDim)

	normalized := Normalize(code, language)

	for feat, patterns := range conceptPatterns {
		count := 0
		for _, re := range patterns {
			count += len(re.FindAllString(normalized, -1))
		}
		values[feat] = squash(float64(count))
	}

	values[featLoopDepth] = squash(float64(maxLoopDepth(code)))
	values[featRecursion] = squash(float64(countRecursiveCalls(code)))
	values[featIndexAccess] = squash(float64(len(indexAccessRe.FindAllString(normalized, -1))))
	values[featBranching] = squash(float64(len(branchRe.FindAllString(normalized, -1))))

	return FeatureVector{Schema: FeatureSchema, Values: values}
}

// Normalize strips comments and string literals, lowercases, and
// collapses whitespace so pattern matching is language-agnostic.
func Normalize(code, language string) string {
	code = blockCommentRe.ReplaceAllString(code, " ")
	code = lineCommentRe.ReplaceAllString(code, "")
	code = dquoteRe.ReplaceAllString(code, "strlit")
	code = squoteRe.ReplaceAllString(code, "strlit")
	code = whitespaceRe.ReplaceAllString(code, " ")
	return strings.ToLower(strings.TrimSpace(code))
}

// squash compresses raw counts with asinh so a single noisy signal
// cannot dominate the vector.
func squash(x float64) float64 {
	return math.Asinh(x)
}

// maxLoopDepth estimates the deepest loop nesting using an indentation
// stack. Works for both indentation-scoped and brace-scoped languages
// as long as the code is conventionally indented.
func maxLoopDepth(code string) int {
	type frame struct {
		indent int
		isLoop bool
	}

	var stack []frame
	maxDepth := 0

	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(trimmed)

		for len(stack) > 0 && indent <= stack[len(stack)-1].indent {
			stack = stack[:len(stack)-1]
		}

		if loopRe.MatchString(line) {
			stack = append(stack, frame{indent: indent, isLoop: true})
			depth := 0
			for _, f := range stack {
				if f.isLoop {
					depth++
				}
			}
			if depth > maxDepth {
				maxDepth = depth
			}
		}
	}

	return maxDepth
}

// countRecursiveCalls counts defined functions that call themselves.
func countRecursiveCalls(code string) int {
	names := map[string]bool{}
	for _, re := range funcDefRes {
		for _, m := range re.FindAllStringSubmatch(code, -1) {
			name := m[1]
			switch name {
			case "if", "for", "while", "switch", "main", "return":
				continue
			}
			names[name] = true
		}
	}

	recursive := 0
	for name := range names {
		callRe := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\s*\(`)
		// One match is the definition itself.
		if len(callRe.FindAllString(code, -1)) > 1 {
			recursive++
		}
	}
	return recursive
}
