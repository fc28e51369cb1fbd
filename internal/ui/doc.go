// Package ui implements the courier dispatch board on Bubble Tea.
//
// The board shows one card per active order, colored by urgency, with a live
// countdown to the delivery time and, for scheduled pickups, to the pickup
// time. Operators add, edit, deliver, complete and cancel orders through
// modal dialogs; every change goes through the Tracker, which pushes to the
// remote store and asks the board to redraw through Presenter.
//
// # Views
//
//   - Board: the card grid (default)
//   - Log: a tail of the application log with search and follow mode
//
// The history dialog (H) lists finished deliveries and X exports them to
// delivery_history.json.
//
// # Redraws
//
// Every redraw rebuilds the cards from Tracker.Snapshot and starts a new
// generation of one-second countdown ticks. Ticks from an older generation
// are dropped, so a redraw never leaves duplicate timers behind. A separate
// minute tick expires delivered orders past their retention window.
//
// # Usage
//
//	err := ui.Run(ui.Options{
//		Context:   ctx,
//		Tracker:   tr,
//		Config:    &cfg,
//		ThemeName: p.Theme,
//		Attach:    func(p ui.Presenter) { tr.SetPresenter(p) },
//	})
package ui
