// Package archive keeps timestamped copies of the progress database so an
// import can be undone by hand.
package archive
