// Package selector picks the words for a study session and attaches the
// per-step session state each word carries while it is being studied.
package selector
