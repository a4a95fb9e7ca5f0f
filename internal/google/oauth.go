package google

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// tokenFileName is the per-account token file name pattern inside the cache
// directory. The default account uses google.token for compatibility with
// earlier releases.
const tokenFileName = "google.token"

// DefaultAccount is the account name used when no account is configured.
const DefaultAccount = "default"

// tokenPath returns the token file path for an account.
func tokenPath(account string) string {
	cacheDir := filepath.Join(userCacheDir(), "inboxbrief")
	if account == "" || account == DefaultAccount {
		return filepath.Join(cacheDir, tokenFileName)
	}
	return filepath.Join(cacheDir, account+"."+tokenFileName)
}

// HasTokenForAccount checks if an OAuth token exists for the account, either
// in the environment or the token cache.
func HasTokenForAccount(account string) bool {
	if os.Getenv("GOOGLE_OAUTH_TOKEN") != "" {
		return true
	}
	_, err := os.ReadFile(tokenPath(account))
	return err == nil
}

// oauthConfig builds the OAuth2 configuration from environment credentials.
func oauthConfig() (*oauth2.Config, error) {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       OAuthScopes,
	}, nil
}

// SaveToken exchanges an authorization code for tokens and caches them for
// the account.
func SaveToken(ctx context.Context, account, authCode string) error {
	conf, err := oauthConfig()
	if err != nil {
		return err
	}

	t, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}

	file := tokenPath(account)
	if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tokenData := t.AccessToken + " " + t.RefreshToken
	if err := os.WriteFile(file, []byte(tokenData), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// AuthURL returns the OAuth URL for user authorization.
func AuthURL() (string, error) {
	conf, err := oauthConfig()
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL("state"), nil
}

// TokenSourceForAccount returns an OAuth2 token source for the account.
// A GOOGLE_OAUTH_TOKEN environment value takes precedence over the cache;
// it is treated as a bearer access token without refresh.
func TokenSourceForAccount(ctx context.Context, account string) (oauth2.TokenSource, error) {
	if raw := os.Getenv("GOOGLE_OAUTH_TOKEN"); raw != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: strings.TrimSpace(raw),
			TokenType:   "Bearer",
		}), nil
	}

	conf, err := oauthConfig()
	if err != nil {
		return nil, err
	}

	slurp, err := os.ReadFile(tokenPath(account))
	if err != nil {
		return nil, fmt.Errorf("no valid Google OAuth token found for account %s", account)
	}

	f := strings.Fields(strings.TrimSpace(string(slurp)))
	if len(f) != 2 {
		return nil, fmt.Errorf("invalid token format in %s", tokenPath(account))
	}

	// Expiry in the past forces a refresh on first use.
	return conf.TokenSource(ctx, &oauth2.Token{
		AccessToken:  f[0],
		TokenType:    "Bearer",
		RefreshToken: f[1],
		Expiry:       time.Unix(1, 0),
	}), nil
}

// HTTPClientForAccount returns an HTTP client configured with OAuth2
// authentication for the account.
func HTTPClientForAccount(ctx context.Context, account string) (*http.Client, error) {
	ts, err := TokenSourceForAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
		return os.TempDir()
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}
