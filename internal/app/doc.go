// Package app wires the configured store, course catalog, progress tracker,
// word selector and audio chain together for the command line.
package app
