// Package order holds the delivery order model and its lifecycle.
//
// # Overview
//
// An order moves through a small state machine:
//
//	pending ──confirm (no return)──────────────────────────> delivered
//	pending ──confirm (with return)──> return_scheduled ──complete──> delivered
//
// Every function here is pure: it takes an Order and the current time and returns the
// next Order plus, on a terminal transition, the HistoryEntry to append. Storage,
// synchronization and rendering live elsewhere (state, bridge, tracker, ui).
//
// # Wire Format
//
// Order and HistoryEntry marshal to the camelCase document shape shared by every remote
// backend and by the history file. Timestamps are epoch milliseconds. Optional order
// fields are omitted when absent; history entries carry explicit nulls.
//
// # Display Helpers
//
// StatusClass, TimeRemaining and Countdown derive card colors and countdown text from
// wall-clock time. They are never persisted.
package order
