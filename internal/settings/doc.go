// Package settings declares the typed settings model: keys with a declared
// type, default and validation predicate, grouped into domains that are each
// backed by one file.
//
// Values are coerced into a canonical Go type (bool, int, float64, string)
// before they are checked, so a value typed on a command line, read from a
// key=value file or decoded from JSON is validated the same way.
package settings
