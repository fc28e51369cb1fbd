package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns the whole file. A missing file is empty.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one line of the console-encoded application log.
type Entry struct {
	Time    string
	Level   string
	Caller  string
	Message string
	Fields  string
	// Raw is set for lines that are not log records, such as stack traces.
	Raw string
}

// IsRecord reports whether the line parsed as a log record.
func (e Entry) IsRecord() bool {
	return e.Raw == "" && e.Level != ""
}

var levels = map[string]struct{}{
	"DEBUG":  {},
	"INFO":   {},
	"WARN":   {},
	"ERROR":  {},
	"DPANIC": {},
	"PANIC":  {},
	"FATAL":  {},
}

// ParseLine splits a tab-separated console record:
//
//	2025-06-14T09:00:00.000Z	INFO	tracker/tracker.go:120	order created	{"id": "..."}
//
// The caller and fields columns are optional. Anything else comes back as Raw.
func ParseLine(line string) Entry {
	parts := strings.Split(line, "\t")
	if len(parts) < 3 {
		return Entry{Raw: line}
	}
	if _, ok := levels[parts[1]]; !ok {
		return Entry{Raw: line}
	}
	e := Entry{Time: parts[0], Level: parts[1]}
	rest := parts[2:]
	if len(rest) > 1 && looksLikeCaller(rest[0]) {
		e.Caller = rest[0]
		rest = rest[1:]
	}
	e.Message = rest[0]
	if len(rest) > 1 {
		e.Fields = strings.Join(rest[1:], " ")
	}
	return e
}

func looksLikeCaller(s string) bool {
	colon := strings.LastIndexByte(s, ':')
	return colon > 0 && strings.HasSuffix(s[:colon], ".go") && !strings.ContainsAny(s, " ")
}
