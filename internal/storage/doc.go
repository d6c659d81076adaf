// Package storage provides the file access layer for setting domains.
//
// DiskStorage never overwrites a file in place: every write goes to a
// temporary file in the target's directory which is synced and then renamed
// over the target, so readers observe either the old or the new content.
package storage
