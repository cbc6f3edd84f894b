package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthMessagePrefix is prepended to the nonce before signing, so a signature
// for one deployment cannot be replayed against another.
const AuthMessagePrefix = "Curvelaunch auth: "

// MessageSigner signs the auth challenge; chain.Signer satisfies it.
type MessageSigner interface {
	SignMessage(data []byte) (string, error)
}

// nonceResponse is the body of GET /api/auth/nonce.
type nonceResponse struct {
	Nonce     string `json:"nonce"`
	ExpiresAt int64  `json:"expires_at"`
}

// verifyResponse is the body of POST /api/auth/verify.
type verifyResponse struct {
	SessionToken string `json:"session_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// SessionUser is the profile behind the current session.
type SessionUser struct {
	Address   string    `json:"address"`
	Username  string    `json:"username,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Authenticate runs the nonce/sign/verify flow and installs the resulting
// session token on the client.
func (c *Client) Authenticate(ctx context.Context, address string, signer MessageSigner) (string, error) {
	var nonce nonceResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/nonce",
		map[string]string{"address": address}, &nonce); err != nil {
		return "", fmt.Errorf("failed to request nonce: %w", err)
	}

	signature, err := signer.SignMessage([]byte(AuthMessagePrefix + nonce.Nonce))
	if err != nil {
		return "", fmt.Errorf("failed to sign nonce: %w", err)
	}

	var verify verifyResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/verify", map[string]string{
		"address":   address,
		"nonce":     nonce.Nonce,
		"signature": signature,
	}, &verify); err != nil {
		return "", fmt.Errorf("failed to verify signature: %w", err)
	}

	c.SetSession(verify.SessionToken)
	return verify.SessionToken, nil
}

// CurrentUser fetches the profile behind the active session.
func (c *Client) CurrentUser(ctx context.Context) (*SessionUser, error) {
	var user SessionUser
	if err := c.do(ctx, http.MethodGet, "/api/auth/user", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SessionExpiry reads the exp claim from a session JWT. The token is not
// verified here; only the backend holds the signing key. Used to decide when
// to re-authenticate instead of discovering a 401 mid-flow.
func SessionExpiry(sessionToken string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(sessionToken, claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse session token: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("session token has no expiry claim")
	}
	return exp.Time, nil
}

// SessionValid reports whether the token exists and has not expired.
func SessionValid(sessionToken string) bool {
	if sessionToken == "" {
		return false
	}
	exp, err := SessionExpiry(sessionToken)
	if err != nil {
		return false
	}
	return time.Now().Before(exp)
}
