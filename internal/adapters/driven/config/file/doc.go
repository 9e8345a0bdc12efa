// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: dotted-key editing of the TOML config file
package file
