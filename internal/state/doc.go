// Package state holds the API health seen by the background poller.
//
// # Overview
//
// The health poller and the UI run on different goroutines. Store sits
// between them: the poller calls Update after every GET /health, and the UI
// reads a Snapshot when it renders the header.
//
//	Producer (Poller):             Consumer (UI):
//	┌────────────────┐            ┌─────────────────┐
//	│ client.Health()│            │                 │
//	│      ↓         │            │                 │
//	│ store.Update() │───────────→│ store.Snapshot()│
//	│      ↓         │  (mutex)   │      ↓          │
//	│  backoff...    │            │  render header  │
//	└────────────────┘            └─────────────────┘
//
// # Update Semantics
//
//	// Success case: replace health, clear error, reset failure count
//	store.Update(&health, nil)
//
//	// Error case: keep old health, record error, count the failure
//	store.Update(nil, err)
//
// After two consecutive failures Snapshot.IsOffline reports true and the
// header shows the API as offline.
//
// The zero Store is ready to use.
package state
