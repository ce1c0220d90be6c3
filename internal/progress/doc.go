// Package progress tracks study progress: the aggregate answer counters and
// streak, the error-word and learned-word records, and the user settings.
// All state is read from and written back to a store.Store; the tracker
// itself holds no state between calls.
package progress
