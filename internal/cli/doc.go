// Package cli holds the output side of the hyde-settings commands: flag
// registration shared by every command, table, JSON and YAML rendering of
// settings, drift reports, load flags and metrics, and the progress
// spinner.
//
// Tables are rendered with go-pretty. The table format draws rounded
// boxes; the plain format prints kubectl-style columns suitable for grep
// and awk. JSON and YAML print the same data as structured documents.
package cli
