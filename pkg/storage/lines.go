package storage

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"frienddump/pkg/models"
)

// maxLineSize bounds a single line read by ReadLines
const maxLineSize = 1 << 20

// ReadLines returns the lines of a text file with trailing "\r" removed
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}

// ReadIdentifiers reads a seed or probe file: one identifier per line,
// "id|name" lines keep the id, blank lines are dropped.
func ReadIdentifiers(path string) ([]string, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	return models.ParseIdentifiers(lines), nil
}

// FirstExisting returns the first path in paths that exists as a regular file
func FirstExisting(paths []string) (string, bool) {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}
