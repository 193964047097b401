package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names. Templates use Go fmt verbs; the comment on each
// name lists the arguments in order.
const (
	// PromptSummarySystem is the system prompt for summary generation. No arguments.
	PromptSummarySystem = "summary_system"

	// PromptSummary asks for a summary: target words (%d), min words (%d),
	// max words (%d), title (%s), article text (%s).
	PromptSummary = "summary"

	// PromptClassify asks for one article type: allowed types (%s), title (%s),
	// categories (%s), summary (%s).
	PromptClassify = "classify"

	// PromptKeyFacts asks for "Key: Value" lines: title (%s), infobox (%s), text (%s).
	PromptKeyFacts = "key_facts"

	// PromptDates asks for "Date | Event | Year" lines: title (%s), text (%s).
	PromptDates = "dates"

	// PromptLocations asks for "Name | Type | ModernName" lines: title (%s), text (%s).
	PromptLocations = "locations"

	// PromptTopics asks for one topic per line: title (%s), summary (%s).
	PromptTopics = "topics"

	// PromptDiscoverySystem is the system prompt for article discovery. No arguments.
	PromptDiscoverySystem = "discovery_system"

	// PromptDiscoveryEstimate asks for the first batch: query (%s), batch size (%d).
	PromptDiscoveryEstimate = "discovery_estimate"

	// PromptDiscoveryContinue asks for a further batch: query (%s), batch number (%d),
	// batch size (%d), already loaded titles (%s).
	PromptDiscoveryContinue = "discovery_continue"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
// Services implementing this interface can have their prompt templates customised
// by injecting a PromptStore after construction.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}
