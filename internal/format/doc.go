// Package format reads and writes the backing files of setting domains.
//
// Each codec parses a file into a Document that can be queried and edited
// key by key and rendered back. Editing is surgical: lines, members and keys
// that were not Set are written back the way they were read, so manual edits
// to unrelated parts of a file survive a rewrite (TOML is the exception; it
// keeps unknown keys but not comments or order).
package format
