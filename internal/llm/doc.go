// Package llm defines the analysis collaborator: turning a fetched email
// into a structured insight, a thread into a reply draft, and a set of
// insights into narrative prose. The OpenAI implementation lives here; the
// run controller depends only on the Analyzer interface.
package llm
