package crash

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// List returns the stacktrace files directly inside dir, newest first. Only
// regular files whose extension is exactly ".stacktrace" are included. An
// empty or missing dir yields no files and no error.
func List(dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read stacktrace dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() || filepath.Ext(e.Name()) != "."+Ext {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	slices.SortFunc(paths, func(a, b string) int {
		ta, _ := Stamp(a)
		tb, _ := Stamp(b)
		if c := tb.Compare(ta); c != 0 {
			return c
		}
		return cmp.Compare(b, a)
	})
	return paths, nil
}

// Stamp recovers the capture time from a stacktrace file name.
func Stamp(path string) (time.Time, bool) {
	base := strings.TrimSuffix(filepath.Base(path), "."+Ext)
	ms, err := strconv.ParseInt(base, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// Read returns the contents of one stacktrace file.
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read stacktrace: %w", err)
	}
	return string(data), nil
}
