// Package gmail wraps the Gmail API as the run controller's email source:
// listing unread message ids, fetching message and thread details, and
// creating reply drafts.
//
// The package converts Gmail wire messages into the local Message type at
// the boundary, so nothing above it touches MIME parts or base64url bodies.
package gmail
