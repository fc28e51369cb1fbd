package ui

import (
	"regexp"

	"github.com/five82/courier/internal/logtail"
)

// logSearch is a case-insensitive regexp search over the visible log lines.
// The zero value is an inactive search.
type logSearch struct {
	query   string
	re      *regexp.Regexp
	matches []int
	current int
}

// compileLogSearch builds a search for query. An empty query clears it.
func compileLogSearch(query string) (logSearch, error) {
	if query == "" {
		return logSearch{}, nil
	}
	re, err := regexp.Compile("(?i)" + query)
	if err != nil {
		return logSearch{}, err
	}
	return logSearch{query: query, re: re}, nil
}

func (s logSearch) active() bool { return s.re != nil }

// index recomputes matches against lines, keeping the cursor when it is
// still in range.
func (s *logSearch) index(lines []string) {
	s.matches = s.matches[:0]
	if s.re == nil {
		return
	}
	for i, line := range lines {
		if s.re.MatchString(line) {
			s.matches = append(s.matches, i)
		}
	}
	if s.current >= len(s.matches) {
		s.current = 0
	}
}

// step moves the cursor by delta, wrapping. It reports the focused line or
// -1 when nothing matches.
func (s *logSearch) step(delta int) int {
	n := len(s.matches)
	if n == 0 {
		return -1
	}
	s.current = ((s.current+delta)%n + n) % n
	return s.matches[s.current]
}

func (s logSearch) focused() int {
	if s.current < len(s.matches) {
		return s.matches[s.current]
	}
	return -1
}

func (s logSearch) matchSet() map[int]bool {
	set := make(map[int]bool, len(s.matches))
	for _, i := range s.matches {
		set[i] = true
	}
	return set
}

// logLevelFilter hides records below a minimum severity.
type logLevelFilter int

const (
	levelAll logLevelFilter = iota
	levelInfo
	levelWarn
	levelError
)

func (f logLevelFilter) String() string {
	switch f {
	case levelInfo:
		return "info+"
	case levelWarn:
		return "warn+"
	case levelError:
		return "error+"
	default:
		return "all"
	}
}

func (f logLevelFilter) next() logLevelFilter {
	return (f + 1) % (levelError + 1)
}

func levelRank(level string) logLevelFilter {
	switch level {
	case "DEBUG":
		return levelAll
	case "INFO":
		return levelInfo
	case "WARN":
		return levelWarn
	default:
		return levelError
	}
}

// apply returns the lines at or above the filter. Lines that are not log
// records, such as stack traces, follow the record before them.
func (f logLevelFilter) apply(lines []string) []string {
	if f == levelAll {
		return lines
	}
	out := make([]string, 0, len(lines))
	keep := false
	for _, line := range lines {
		if e := logtail.ParseLine(line); e.IsRecord() {
			keep = levelRank(e.Level) >= f
		}
		if keep {
			out = append(out, line)
		}
	}
	return out
}
