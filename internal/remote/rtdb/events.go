package rtdb

import (
	"bufio"
	"io"
	"strings"
)

// event is one server-sent event from the streaming REST API.
type event struct {
	Name string
	Data string
}

type eventReader struct {
	scanner *bufio.Scanner
}

func newEventReader(r io.Reader) *eventReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxEventLineLength)
	return &eventReader{scanner: scanner}
}

// Next returns the next complete event. Comment lines and unknown fields are
// skipped; multiple data lines are joined with newlines.
func (r *eventReader) Next() (event, error) {
	var ev event
	var data []string
	seen := false
	for r.scanner.Scan() {
		line := strings.TrimSuffix(r.scanner.Text(), "\r")
		if line == "" {
			if !seen {
				continue
			}
			ev.Data = strings.Join(data, "\n")
			return ev, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			ev.Name = value
			seen = true
		case "data":
			data = append(data, value)
			seen = true
		}
	}
	if err := r.scanner.Err(); err != nil {
		return event{}, err
	}
	return event{}, io.EOF
}
