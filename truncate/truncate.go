// Package truncate bounds prompt text to a character budget without leaving
// a markdown code fence open.
package truncate

import "strings"

// Fence is the markdown code fence marker.
const Fence = "```"

// FenceCloser is appended when a cut leaves a code fence open: a closing
// fence followed by an ellipsis line.
const FenceCloser = "\n" + Fence + "\n..."

// Elision pads a cut that gave up the closer region but needed no closer.
// It is as long as FenceCloser and contains no fence marker.
const Elision = "\n\n[...]\n"

var closerLen = len([]rune(FenceCloser))

// Runes returns the first n runes of s, or s itself when it is shorter.
func Runes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Len returns the length of s in runes.
func Len(s string) int {
	return len([]rune(s))
}

// FenceCount returns the number of non-overlapping fence markers in s.
func FenceCount(s string) int {
	return strings.Count(s, Fence)
}

// Balanced reports whether every fence in s is closed.
func Balanced(s string) bool {
	return FenceCount(s)%2 == 0
}

// Prompt truncates s to at most max runes. When the plain cut leaves a
// fence open, the text is cut shorter and FenceCloser appended so the
// result is still exactly max runes with balanced fences.
//
// If max cannot hold FenceCloser the plain cut is returned unrepaired. If
// the open fence sits inside the region given up for the closer, the
// shorter cut is already balanced and Elision fills the region instead.
func Prompt(s string, max int) string {
	if Len(s) <= max {
		return s
	}

	cut := Runes(s, max)
	if Balanced(cut) || max < closerLen {
		return cut
	}

	head := Runes(s, max-closerLen)
	if Balanced(head) {
		return head + Elision
	}
	return head + FenceCloser
}
