// Package assistant turns free-text requests into candidate setting
// changes with an OpenAI-compatible chat model.
//
// The assistant never writes anything. Suggest returns a Suggestion whose
// Changes the caller feeds into reconciler.ProposeFrom with
// reconciler.SourceAssistant, exactly like changes typed by hand; whatever
// the model invents is caught by validation there.
package assistant
