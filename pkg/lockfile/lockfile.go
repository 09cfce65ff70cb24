// Package lockfile provides the line-oriented codec (C8) underlying the
// engine's resolution store: a lockfile is LF-delimited text where each
// non-blank line's first whitespace-separated token is a source tag that
// dispatches the rest of the line to that source's driver.
package lockfile

import "strings"

// Line is one tokenized, non-blank lockfile line.
type Line struct {
	Number int // 1-based, counting blank lines so warnings can cite the original file
	Tag    string
	Fields []string
	Raw    string
}

// Parse splits data into tokenized lines, skipping blank lines and trimming
// a trailing CR so lockfiles round-trip across CRLF/LF checkouts.
func Parse(data []byte) []Line {
	raw := strings.Split(string(data), "\n")
	lines := make([]Line, 0, len(raw))
	for i, text := range raw {
		text = strings.TrimRight(text, "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		fields := strings.Fields(text)
		lines = append(lines, Line{
			Number: i + 1,
			Tag:    fields[0],
			Fields: fields[1:],
			Raw:    text,
		})
	}
	return lines
}

// Emit joins already-serialized lines (each produced by a driver, tag
// included) into lockfile text terminated by a trailing newline.
func Emit(lines []string) []byte {
	if len(lines) == 0 {
		return nil
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}
