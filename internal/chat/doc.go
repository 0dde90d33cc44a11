// Package chat dispatches provider-agnostic chat requests to the adapter for
// the resolved provider and normalizes the result to plain text or a failure
// from the generation error taxonomy.
//
// Exactly one upstream call is made per dispatch. Vendor SDK retries are
// disabled; callers decide whether to try again.
package chat
