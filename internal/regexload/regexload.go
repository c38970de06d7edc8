// Package regexload loads the externally supplied AV-detection regex source
// from a text file.
package regexload

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"seedcurator/internal/seederr"
)

// Load reads the first line of path that contains a non-whitespace
// character, and returns it trimmed. The regex source itself is not
// compiled here -- the caller chooses the engine. A missing file, a read
// error, or a file with no non-blank line is a setup error.
func Load(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", seederr.Setup(fmt.Errorf("open regex file %q: %w", path, err))
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	// Regex sources can legitimately be long lines; grow past the default
	// 64KiB token limit.
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			return line, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", seederr.Setup(fmt.Errorf("read regex file %q: %w", path, err))
	}
	return "", seederr.Setup(fmt.Errorf("regex file %q is empty", path))
}
