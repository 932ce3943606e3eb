// Package file provides file-based implementations of driven port interfaces.
//
// ConfigStore keeps settings in ~/.marketsync/config.toml. Keys are
// addressed in dot notation ("sync.interval") and written back as nested
// TOML tables. Watch reloads the file when it changes on disk.
package file
