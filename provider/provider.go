// Package provider declares the capabilities the gateway needs from Facebook:
// the OAuth endpoints (login dialog, code exchange, identity) and the Graph API
// edges holding ad accounts, campaigns and ads.
//
// Implementations report failures using the taxonomy in internal/errors:
// ErrExchangeFailed for a rejected code, ErrUpstreamTimeout when a deadline
// expires, ErrUpstreamFetchFailed for any other failed Graph read.
package provider

import "context"

type OAuthProvider interface {
	// AuthCodeURL builds the login dialog URL carrying state, the configured
	// redirect URI and the requested scopes.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for an access token. It is not
	// safe to retry: Facebook invalidates a code after its first use.
	Exchange(ctx context.Context, code string) (*Credential, error)

	// Identity returns the user's profile and granted permissions.
	Identity(ctx context.Context, cred *Credential) (Identity, error)
}

type GraphProvider interface {
	FetchPage(ctx context.Context, cred *Credential, req PageRequest) (Page, error)
}
