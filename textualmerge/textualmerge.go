// Package textualmerge implements the three-way line merge used for leaf
// body content: opaque method/field/block text that the declaration tree
// treats as a single string. It also serves as the driver's whole-file
// unstructured-merge fallback (see driver.MergeFiles).
package textualmerge

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Error is returned only for internal faults in the merge machinery itself,
// never for the presence of conflicts (which is reported through the bool
// return of Merge, matching the source contract's distinction between a
// TextualMergeError and a ConflictPresent state).
type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

const (
	markerMine  = "<<<<<<< MINE"
	markerBase  = "||||||| BASE"
	markerSplit = "======="
	markerTheir = ">>>>>>> YOURS"
)

// Merge performs a three-way merge of left/base/right opaque text and
// returns the merged text together with whether any conflict markers were
// emitted. It is idempotent (Merge(x, x, x) == (x, false)) and commutative
// up to the labels inside conflict markers.
func Merge(left, base, right string, ignoreWhitespace bool) (string, bool, error) {
	newline := detectNewline(base, left, right)

	baseLines := splitLines(normalizeNewlines(base))
	leftLines := splitLines(normalizeNewlines(left))
	rightLines := splitLines(normalizeNewlines(right))

	leftChanged, leftGaps := diffAgainstBase(baseLines, leftLines, ignoreWhitespace)
	rightChanged, rightGaps := diffAgainstBase(baseLines, rightLines, ignoreWhitespace)

	n := len(baseLines)
	// active[slot]: slot 2k is the gap before line k (0..n), slot 2k+1 is
	// line k (0..n-1). A slot is active when either side touches it.
	active := make([]bool, 2*n+1)
	for k := 0; k <= n; k++ {
		if len(leftGaps[k]) > 0 || len(rightGaps[k]) > 0 {
			active[2*k] = true
		}
	}
	for k := 0; k < n; k++ {
		if leftChanged[k] || rightChanged[k] {
			active[2*k+1] = true
		}
	}

	var out []string
	hasConflict := false

	s := 0
	for s < len(active) {
		if !active[s] {
			// Stable slot: a line, passed through verbatim. Gaps contribute
			// nothing when stable.
			if s%2 == 1 {
				out = append(out, baseLines[s/2])
			}
			s++
			continue
		}
		// Grow [s, e) to the maximal active run.
		e := s
		for e < len(active) && active[e] {
			e++
		}
		lo, hi := s/2, e/2

		leftContent := reconstructSide(lo, hi, leftChanged, leftGaps, baseLines, newline)
		rightContent := reconstructSide(lo, hi, rightChanged, rightGaps, baseLines, newline)
		baseContent := strings.Join(baseLines[lo:hi], newline)

		changedLeft := leftContent != baseContent
		changedRight := rightContent != baseContent

		switch {
		case !changedLeft && !changedRight:
			if baseContent != "" {
				out = append(out, baseContent)
			}
		case changedLeft && !changedRight:
			if leftContent != "" {
				out = append(out, leftContent)
			}
		case !changedLeft && changedRight:
			if rightContent != "" {
				out = append(out, rightContent)
			}
		case leftContent == rightContent:
			if leftContent != "" {
				out = append(out, leftContent)
			}
		default:
			hasConflict = true
			out = append(out, markerMine)
			if leftContent != "" {
				out = append(out, leftContent)
			}
			out = append(out, markerBase)
			if baseContent != "" {
				out = append(out, baseContent)
			}
			out = append(out, markerSplit)
			if rightContent != "" {
				out = append(out, rightContent)
			}
			out = append(out, markerTheir)
		}

		s = e
	}

	return strings.Join(out, newline), hasConflict, nil
}

// reconstructSide rebuilds one contribution's content for the base line
// range [lo, hi), including gap insertions at every gap position lo..hi.
func reconstructSide(lo, hi int, changed []bool, gaps [][]string, base []string, newline string) string {
	var parts []string
	parts = append(parts, gaps[lo]...)
	for i := lo; i < hi; i++ {
		if !changed[i] {
			parts = append(parts, base[i])
		}
		parts = append(parts, gaps[i+1]...)
	}
	return strings.Join(parts, newline)
}

// diffAgainstBase computes, for one contribution against base, which base
// lines were changed (deleted or replaced) and which lines were inserted at
// each gap position (0..len(base)).
func diffAgainstBase(base, other []string, ignoreWhitespace bool) (changed []bool, gaps [][]string) {
	changed = make([]bool, len(base))
	gaps = make([][]string, len(base)+1)

	baseForDiff := base
	otherForDiff := other
	if ignoreWhitespace {
		baseForDiff = normalizeEach(base)
		otherForDiff = normalizeEach(other)
	}

	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(strings.Join(baseForDiff, "\n"), strings.Join(otherForDiff, "\n"))
	diffs := dmp.DiffMain(chars1, chars2, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	baseIdx, otherIdx := 0, 0
	for _, d := range diffs {
		lines := diffLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			baseIdx += len(lines)
			otherIdx += len(lines)
		case diffmatchpatch.DiffDelete:
			for k := 0; k < len(lines); k++ {
				changed[baseIdx+k] = true
			}
			baseIdx += len(lines)
		case diffmatchpatch.DiffInsert:
			gaps[baseIdx] = append(gaps[baseIdx], other[otherIdx:otherIdx+len(lines)]...)
			otherIdx += len(lines)
		}
	}
	return changed, gaps
}

func diffLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

func detectNewline(samples ...string) string {
	for _, s := range samples {
		if strings.Contains(s, "\r\n") {
			return "\r\n"
		}
	}
	return "\n"
}

func normalizeEach(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = normalizeWhitespace(l)
	}
	return out
}

func normalizeWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
