// Package similarity provides the comparison primitives the handler
// framework uses to decide whether two terminals (methods, constructors,
// fields, ...) across two trees denote "the same thing": exact signature
// equality, body equality, and fuzzy body similarity via normalized edit
// distance. These are the building blocks "most accurate match" is defined
// in terms of.
package similarity

import (
	"encoding/hex"
	"strings"

	"lukechampine.com/blake3"

	"github.com/alicezbo/jFSTMerge/tree"
)

// Tau is the default similarity threshold used by HaveSimilarBody when
// callers don't have a tuned value of their own. It is fixed, not meant to
// be end-user configurable, but exposed as a value so tests and
// config.Configuration can reference the same constant.
const Tau = 0.7

// HaveEqualSignature reports whether a and b have the same identifier once
// whitespace differences are normalized away.
func HaveEqualSignature(ta *tree.Tree, a tree.NodeID, tb *tree.Tree, b tree.NodeID) bool {
	return strings.Join(strings.Fields(ta.Signature(a)), "") == strings.Join(strings.Fields(tb.Signature(b)), "")
}

// HaveEqualBody reports whether a and b have the same body text, optionally
// ignoring whitespace-only differences.
func HaveEqualBody(ta *tree.Tree, a tree.NodeID, tb *tree.Tree, b tree.NodeID, ignoreWhitespace bool) bool {
	bodyA, bodyB := ta.Body(a), tb.Body(b)
	if ignoreWhitespace {
		bodyA, bodyB = normalizeWhitespace(bodyA), normalizeWhitespace(bodyB)
	}
	return bodyA == bodyB
}

// HaveEqualSignatureButName reports whether a and b share the same
// parameter list (the signature stripped of the leading name token) while
// their names differ. It catches the "renamed, everything else untouched"
// case that HaveEqualSignature, by construction, cannot.
func HaveEqualSignatureButName(ta *tree.Tree, a tree.NodeID, tb *tree.Tree, b tree.NodeID) bool {
	if ta.Name(a) == tb.Name(b) {
		return false
	}
	return normalizeWhitespace(paramsOf(ta.Signature(a), ta.Name(a))) ==
		normalizeWhitespace(paramsOf(tb.Signature(b), tb.Name(b)))
}

// HaveSimilarBody reports whether a and b's whitespace-normalized bodies are
// at least tau-similar under normalized Levenshtein distance:
// sim = 1 - levenshtein(a,b)/max(len(a),len(b)). Two empty bodies are
// maximally similar; an empty body compared to a non-empty one is not
// similar at all.
func HaveSimilarBody(ta *tree.Tree, a tree.NodeID, tb *tree.Tree, b tree.NodeID, tau float64) bool {
	bodyA := normalizeWhitespace(ta.Body(a))
	bodyB := normalizeWhitespace(tb.Body(b))
	return similarity(bodyA, bodyB) >= tau
}

// OneContainsTheBodyFromTheOther reports whether one side's normalized token
// stream is a contiguous subsequence of the other's, catching small method
// extractions where one body is literally a fragment of the other.
func OneContainsTheBodyFromTheOther(ta *tree.Tree, a tree.NodeID, tb *tree.Tree, b tree.NodeID) bool {
	tokensA := tokenize(ta.Body(a))
	tokensB := tokenize(tb.Body(b))
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return false
	}
	return containsSubsequence(tokensA, tokensB) || containsSubsequence(tokensB, tokensA)
}

// SimilarityRatio returns the raw normalized body-similarity ratio between a
// and b (see HaveSimilarBody), for callers that need the score itself
// rather than a threshold comparison against tau — namely the renaming
// handler's ArgmaxMatch mode.
func SimilarityRatio(ta *tree.Tree, a tree.NodeID, tb *tree.Tree, b tree.NodeID) float64 {
	bodyA := normalizeWhitespace(ta.Body(a))
	bodyB := normalizeWhitespace(tb.Body(b))
	return similarity(bodyA, bodyB)
}

// ContentFingerprint returns a BLAKE3 content hash of content, used as a
// cheap exact-equality short-circuit ahead of the AST-level comparisons
// above: callers compare fingerprints first and only fall through to
// similarity when they disagree.
func ContentFingerprint(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	if ContentFingerprint([]byte(a)) == ContentFingerprint([]byte(b)) {
		// Equal fingerprints mean equal content (BLAKE3 collision odds are
		// the standard cryptographic-hash non-concern): skip the
		// Levenshtein computation entirely for the common case of two
		// near-duplicate bodies that are, in fact, byte-identical.
		return 1.0
	}
	dist := levenshtein(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	return 1.0 - float64(dist)/float64(maxLen)
}

// levenshtein computes the edit distance between two strings over runes,
// using a single-row dynamic-programming table.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	cur := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			cur[j] = min3(del, ins, sub)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func tokenize(s string) []string {
	return strings.Fields(s)
}

func containsSubsequence(haystack, needle []string) bool {
	if len(needle) > len(haystack) {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// paramsOf strips the leading name token from a signature string, leaving
// the parameter list (and anything after it) for name-insensitive
// comparison.
func paramsOf(signature, name string) string {
	if name == "" {
		return signature
	}
	if idx := strings.Index(signature, name); idx >= 0 {
		return signature[:idx] + signature[idx+len(name):]
	}
	return signature
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
