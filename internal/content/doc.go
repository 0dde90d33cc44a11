// Package content validates and rewrites generated lesson markup.
//
// A normalization pass strips code fences and stray encoding artifacts, finds
// embedded video references, checks their identifiers against the lookup
// service, replaces embeds with plain links, and guarantees a single document
// root. For the constrained PDF renderer the markup is additionally reduced to
// a safe tag and attribute dialect.
package content
