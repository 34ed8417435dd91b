// Package feed keeps the windows listing in step with the query state.
//
// Every state change (filter, search, clear, page) updates the state, writes
// the new address query and issues a Request carrying a fresh sequence
// number. The caller performs the fetch, typically off the UI goroutine, and
// hands the outcome back to Resolve. Only the most recently issued request is
// applied; earlier responses that arrive late are counted and dropped, so a
// slow response for an old filter can never overwrite a newer one.
//
// A failed fetch resets the listing to EmptyResult and records the error.
// There are no retries; Refresh issues the current state again.
package feed
