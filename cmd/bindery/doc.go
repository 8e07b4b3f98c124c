// Command bindery scans an ebook library for omnibus editions and splits them
// into virtual books.
package main
