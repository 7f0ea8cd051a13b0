// Package geo holds the shared vocabulary of the location pipeline: the
// prioritized Location value, nearby Place suggestions, and the sentinel
// errors every source reports through.
//
// Priority follows the source: a location picked by the user outranks one
// read from the asset, which outranks a live device fix. Lower numbers win.
package geo
