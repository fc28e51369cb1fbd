// Package app is the composition root for courier.
//
// Run loads configuration, opens the log file, picks the remote backend
// (memory, rtdb, postgres or dynamodb), and wires the store, the sync bridge
// and the tracker together. It then runs three things under one errgroup:
//
//   - the bridge subscription, feeding remote snapshots into the tracker
//   - the optional HTTP surface when http_bind is set
//   - the terminal board, or the expiry sweeper when headless
//
// Quitting the board (or cancelling the context) cancels the rest.
//
// Fatal errors are configuration, logging and backend setup failures. Once
// running, sync failures are logged, counted and shown on the board; the
// watches keep reconnecting.
package app
