// Package merge implements three-way merge of blob content and trees, and
// the cherry-pick operation built on top of it.
package merge

import (
	"strings"

	diffmatchpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// Conflict marks a path where base/ours/theirs could not be reconciled
// automatically.
type Conflict struct {
	Path string
}

// hunk is a contiguous run of base lines [start, end) replaced by New, as
// recovered from a line-level diff against base.
type hunk struct {
	start, end int
	new        []string
}

// lineHunks walks a dmp line-mode diff of base against other and returns
// the hunks representing other's edits, expressed as base line ranges.
func lineHunks(dmp *diffmatchpatch.DiffMatchPatch, base, other string) []hunk {
	baseChars, otherChars, lines := dmp.DiffLinesToChars(base, other)
	diffs := dmp.DiffMain(baseChars, otherChars, false)

	var hunks []hunk
	baseLine := 0
	var pendingDelete []string

	flush := func(newLines []string) {
		if len(pendingDelete) == 0 && len(newLines) == 0 {
			return
		}
		hunks = append(hunks, hunk{
			start: baseLine - len(pendingDelete),
			end:   baseLine,
			new:   newLines,
		})
		pendingDelete = nil
	}

	for _, d := range diffs {
		text := splitCharsToLines(d.Text, lines)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush(nil)
			baseLine += len(text)
		case diffmatchpatch.DiffDelete:
			pendingDelete = append(pendingDelete, text...)
			baseLine += len(text)
		case diffmatchpatch.DiffInsert:
			flush(text)
		}
	}
	flush(nil)

	return hunks
}

// splitCharsToLines maps the synthetic per-line characters dmp produces
// back to the original lines, one character per original line.
func splitCharsToLines(chars string, lines []string) []string {
	out := make([]string, 0, len(chars))
	for _, r := range chars {
		out = append(out, lines[int(r)])
	}
	return out
}

// ThreeWayMerge merges ours and theirs against their common base, line
// by line. When both sides edit the same base region with different
// results, the merged text carries git-style conflict markers
// ("<<<<<<< oursLabel" / "=======" / ">>>>>>> theirsLabel") and
// conflict reports true.
func ThreeWayMerge(base, ours, theirs, oursLabel, theirsLabel string) (merged string, conflict bool, err error) {
	dmp := diffmatchpatch.New()

	oursHunks := lineHunks(dmp, base, ours)
	theirsHunks := lineHunks(dmp, base, theirs)

	baseLines := splitLinesKeepEnding(base)

	var out strings.Builder
	pos := 0
	oi, ti := 0, 0

	for oi < len(oursHunks) || ti < len(theirsHunks) {
		var oh, th *hunk
		if oi < len(oursHunks) {
			oh = &oursHunks[oi]
		}
		if ti < len(theirsHunks) {
			th = &theirsHunks[ti]
		}

		switch {
		case oh != nil && (th == nil || oh.start < th.start):
			writeLines(&out, baseLines[pos:oh.start])
			writeLines(&out, oh.new)
			pos = oh.end
			oi++

		case th != nil && (oh == nil || th.start < oh.start):
			writeLines(&out, baseLines[pos:th.start])
			writeLines(&out, th.new)
			pos = th.end
			ti++

		default: // oh.start == th.start: same base region touched by both
			writeLines(&out, baseLines[pos:oh.start])
			if linesEqual(oh.new, th.new) && oh.end == th.end {
				writeLines(&out, oh.new)
			} else {
				conflict = true
				out.WriteString("<<<<<<< " + oursLabel + "\n")
				writeLines(&out, oh.new)
				out.WriteString("=======\n")
				writeLines(&out, th.new)
				out.WriteString(">>>>>>> " + theirsLabel + "\n")
			}
			if oh.end > th.end {
				pos = oh.end
			} else {
				pos = th.end
			}
			oi++
			ti++
		}
	}

	writeLines(&out, baseLines[pos:])

	return out.String(), conflict, nil
}

func writeLines(out *strings.Builder, lines []string) {
	for _, l := range lines {
		out.WriteString(l)
	}
}

func linesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// splitLinesKeepEnding splits s into lines, each still carrying its
// trailing "\n" (except possibly the last), matching how dmp.DiffLinesToChars
// tokenizes lines internally.
func splitLinesKeepEnding(s string) []string {
	if s == "" {
		return nil
	}

	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
