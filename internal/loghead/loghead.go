package loghead

import (
	"bufio"
	"errors"
	"fmt"
	"os"
)

// Read returns at most maxLines from the start of the file at path. For a
// prepend-ordered log that is the newest activity. maxLines <= 0 reads every
// line.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	if maxLines > 0 {
		lines = make([]string, 0, min(maxLines, 1024))
	}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if maxLines > 0 && len(lines) == maxLines {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return lines, nil
}
