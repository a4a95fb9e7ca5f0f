// Package google handles OAuth2 token plumbing for Google API access.
// Tokens are cached per account under the user cache directory; client
// credentials come from the environment.
package google
