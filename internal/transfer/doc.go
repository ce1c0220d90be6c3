// Package transfer exports all study data to a single JSON document and
// imports such documents back, validating each field on its own so one bad
// field does not block the rest.
package transfer
