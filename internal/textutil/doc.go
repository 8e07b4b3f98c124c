// Package textutil provides title normalization helpers used when generating
// virtual book records: sort-title folding and filename-derived fallbacks.
package textutil
