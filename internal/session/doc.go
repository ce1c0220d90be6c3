// Package session drives the words of a study set through the five exercise
// steps and reports each outcome to the progress tracker.
//
// A word answered without a failed step is counted as correct, removed from
// the error words and added to the learned words. A failed recognition test,
// a wrong phoneme sequence or running out of spelling attempts counts as a
// wrong answer and records the word as an error word.
package session
