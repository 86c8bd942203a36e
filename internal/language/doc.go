// Package language identifies the language of a source file from its name
// and records which languages have a dedicated AST chunker.
package language
