package google

// OAuthScopes are the Google OAuth scopes the service requires.
//
// The service reads unread mail and creates reply drafts. It never sends
// mail and does not request the send scope.
var OAuthScopes = []string{
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/gmail.compose",
}
