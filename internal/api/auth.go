package api

import (
	"context"
	"fmt"
	"net/http"
)

// AuthResponse is the envelope every auth endpoint returns on success.
type AuthResponse struct {
	Auth struct {
		Token     string `json:"token"`
		ExpiresAt int64  `json:"expires_at"`
	} `json:"auth"`
}

// RequestEmailCode asks the backend to send a one-time login code.
func (c *Client) RequestEmailCode(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.doJSON(ctx, "", http.MethodPost, "/auth/email/request", body, nil)
}

// VerifyEmailCode exchanges an emailed one-time code for a token.
func (c *Client) VerifyEmailCode(ctx context.Context, email, code string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "code": code}
	var out AuthResponse
	if err := c.doJSON(ctx, "", http.MethodPost, "/auth/email/verify", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WalletNonce fetches the nonce a wallet must sign to authenticate.
func (c *Client) WalletNonce(ctx context.Context, address string) (string, error) {
	body := map[string]string{"address": address}
	var out struct {
		Nonce string `json:"nonce"`
	}
	if err := c.doJSON(ctx, "", http.MethodPost, "/auth/wallet/nonce", body, &out); err != nil {
		return "", err
	}
	if out.Nonce == "" {
		return "", fmt.Errorf("server returned empty nonce")
	}
	return out.Nonce, nil
}

// VerifyWallet exchanges a signed nonce for a token.
func (c *Client) VerifyWallet(ctx context.Context, address, nonce, signature string) (*AuthResponse, error) {
	body := map[string]string{"address": address, "nonce": nonce, "signature": signature}
	var out AuthResponse
	if err := c.doJSON(ctx, "", http.MethodPost, "/auth/wallet/verify", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExchangeOAuthCode exchanges a Google OAuth authorization code for a token.
func (c *Client) ExchangeOAuthCode(ctx context.Context, code string) (*AuthResponse, error) {
	body := map[string]string{"code": code}
	var out AuthResponse
	if err := c.doJSON(ctx, "", http.MethodPost, "/auth/google/exchange", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshToken exchanges an expired token for a fresh one. Its shape
// matches auth.RefreshFunc so it can be wired straight into the
// credential store.
func (c *Client) RefreshToken(ctx context.Context, token string) (string, int64, error) {
	var out AuthResponse
	if err := c.doJSON(ctx, token, http.MethodPost, "/auth/refresh", nil, &out); err != nil {
		return "", 0, err
	}
	if out.Auth.Token == "" {
		return "", 0, fmt.Errorf("refresh returned empty token")
	}
	return out.Auth.Token, out.Auth.ExpiresAt, nil
}
