// Package audio plays word pronunciations through an ordered chain of
// engines. The chain keeps the engine that last worked as current and falls
// back to the others, in order, when it fails. Each engine sits behind its
// own circuit breaker so a backend that keeps failing is skipped for a while.
//
// Engines either resolve a word to a local audio file that a Player then
// plays (ClipEngine, OpenAIEngine, GeminiEngine) or speak it directly while
// resolving (SpeechEngine).
package audio
