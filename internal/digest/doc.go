// Package digest ranks analyzed emails by attention priority and renders
// them as a Markdown briefing or as a structured overview suitable for
// narrative rewriting.
package digest
