// Package contentcache stores extracted work content on disk so that repeated
// reads of the same virtual book skip archive parsing.
package contentcache
