// Package ui provides the terminal user interface for sill.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model holds all view state; network work
// runs in tea.Cmd closures that return messages, so Update never blocks. The
// listing itself is owned by feed.Feed: every user change issues a
// feed.Request, the fetch runs as a command, and Update resolves the outcome
// back into the feed, which discards outcomes of superseded requests.
//
// # Views
//
//   - Feed: card list, detail card for the selected record, pagination bar
//     with up to five page buttons and the results summary
//   - Upload: image path input and the card of the last returned record
//   - Logs: tail of sill's own log file with follow mode and regex search
//   - Help overlay and the filter modal, drawn over the active view
//
// # Header
//
// The first line shows the logo, API health from state.Store, the active
// address query, the page, the total count, the last listing error and any
// transient notice. The second line lists the keys of the active view.
//
// # Key Bindings
//
//   - /: Search (feed) or search log (logs)
//   - f: Filter modal; ←/→ choose, enter applies, a resets a facet to all
//   - c: Clear all filters
//   - [ and ]: Previous/next page
//   - 1-5: Jump to the matching page button
//   - r: Retry/refresh
//   - d: Load duplicates of the selected record
//   - b, u, l: Feed, upload and log views
//   - T: Cycle theme
//   - h or ?: Help
//   - e or Ctrl+C: Exit
package ui
