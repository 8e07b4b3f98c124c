// Package services defines the error taxonomy shared by the omnibus pipeline
// and the context annotations that tie log output to a book or stage.
package services
