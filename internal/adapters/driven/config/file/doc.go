// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: User-editable LLM prompt templates
//
// LoadSettings turns a ConfigStore into validated domain.Settings.
package file
