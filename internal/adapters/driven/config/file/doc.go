// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable instruction prompts
//   - LoadEnv: environment overrides, optionally read from a .env file
package file
