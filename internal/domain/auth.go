package domain

import "time"

// TokenIssuer issues tokens (e.g. JWT) for an authenticated seller.
// Identity management itself lives outside this service; the engine
// only needs to mint and verify bearer tokens.
type TokenIssuer interface {
	Issue(userID string, expiry time.Duration) (string, error)
}

// TokenVerifier validates a token and returns the user ID it was
// issued for.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}
