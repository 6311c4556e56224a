// Package term implements the bridge to a remote interactive terminal
// reached over a persistent WebSocket connection.
package term

import "regexp"

// scrubPattern matches, in precedence order: private-mode CSI sequences
// (ESC [? ... final letter), plain CSI sequences (ESC [ ... final letter),
// OSC sequences (ESC ] ... BEL), and finally any bare ESC byte left behind
// by a truncated or malformed sequence.
var scrubPattern = regexp.MustCompile(`\x1b\[\?[0-9;]*[a-zA-Z]|\x1b\[[0-9;]*[a-zA-Z]|\x1b\][^\x07]*\x07|\x1b`)

// Scrub removes terminal control sequences from a raw output chunk.
// Printable text, newlines, and tabs pass through unchanged. The function
// is total and idempotent: malformed sequences lose only their ESC byte,
// and scrubbed text contains no ESC bytes for a second pass to match.
func Scrub(s string) string {
	return scrubPattern.ReplaceAllString(s, "")
}
