// Package logtail reads the tail of courier's log file for the log view.
//
// # Reading
//
// Read keeps a ring buffer of the last maxLines lines, so memory stays at
// O(maxLines) no matter how large the file grows. Lines come back oldest
// first. A missing file reads as empty; other I/O errors are wrapped.
//
//	lines, err := logtail.Read(cfg.LogPath(), 2000)
//
// # Parsing
//
// The application logger writes zap's console encoding, one record per line
// with tab-separated columns:
//
//	2025-06-14T09:00:00.000Z	INFO	tracker/tracker.go:101	order created	{"id": "0197..."}
//
// ParseLine splits a line into time, level, caller, message and the JSON
// fields column. Lines that are not records (stack traces, blank lines) are
// returned as Raw so the view can still show them.
//
// There is no file watching here; the UI calls Read again while the log view
// is open and following.
package logtail
