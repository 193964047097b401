// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - EncyclopediaClient: Fetches article markup, previews and existence checks
//   - Normaliser: Turns article markup into a ParsedDocument
//   - ConfigStore: Application configuration
//   - SecretStore: LLM credential storage
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - MessagesClient: LLM API access. Without it, extraction runs without enrichment.
//   - PromptStore: Customisable prompts. Without it, embedded defaults are used.
//   - ExtractionStore: Archive of past extractions. Without it, nothing is saved.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
