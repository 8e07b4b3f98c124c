// Package scanner reconciles the on-disk library with the store and feeds the
// processing pool.
package scanner
