// Package course holds the read-only course catalog: named word lists with
// meanings and phonemes. Catalogs load from JSON, YAML, XLSX or plain
// "word = meaning" text files; a small default catalog is embedded.
package course
