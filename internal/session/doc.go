// Package session pushes committed settings into the running desktop
// session.
//
// The reconciler calls an Applier after a domain's file and model have been
// updated. HookRunner is the implementation used by the command line: it
// runs configured commands such as
//
//	hyprctl keyword general:border_size {{ borderWidth }}
//
// with placeholders filled from the domain's current values. A failing hook
// never undoes the file change; the desktop simply picks the setting up on
// its next reload.
package session
