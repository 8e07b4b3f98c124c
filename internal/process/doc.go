// Package process runs the omnibus pipeline: classify a book, extract its
// works, synthesize metadata, and atomically replace its virtual book set.
package process
