// Package store provides the key-value persistence layer for learnword.
// Values are JSON-serialised records or plain strings stored under a fixed
// set of keys. Memory, SQLite and Redis backends are available.
package store
