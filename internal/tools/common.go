package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const maxOutputBytes = 10_000

// truncate caps tool output at maxOutputBytes without splitting a UTF-8
// sequence.
func truncate(b []byte) string {
	if len(b) <= maxOutputBytes {
		return string(b)
	}
	cut := maxOutputBytes
	for cut > 0 && !utf8.RuneStart(b[cut]) {
		cut--
	}
	return string(b[:cut]) + "\n... (truncated)"
}

// decodeArgs unmarshals a tool call's JSON arguments into v.
func decodeArgs(tool, input string, v any) error {
	if strings.TrimSpace(input) == "" {
		input = "{}"
	}
	if err := json.Unmarshal([]byte(input), v); err != nil {
		return fmt.Errorf("parsing %s input: %w", tool, err)
	}
	return nil
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
