// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the lexica config directory.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - SecretStore: TOML-based credential storage with owner-only permissions
//   - PromptStore: editable prompt templates with embedded defaults
package file
