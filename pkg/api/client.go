// Package api is the HTTP client for the launchpad backend: token catalog,
// transaction history, liquidity events, chat, metadata updates, image
// upload, holder lists, and wallet-signature session auth.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrSessionExpired indicates the session token is no longer accepted.
var ErrSessionExpired = fmt.Errorf("session expired")

// ErrNotFound indicates the requested resource does not exist.
var ErrNotFound = fmt.Errorf("not found")

// Client wraps HTTP operations against the backend and the block explorer.
type Client struct {
	baseURL     string
	explorerURL string
	httpClient  *http.Client

	sessionToken string
}

// NewClient creates a backend client. explorerURL may be empty if holder
// lists are not needed.
func NewClient(baseURL, explorerURL string) *Client {
	return &Client{
		baseURL:     baseURL,
		explorerURL: explorerURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// SetSession installs the session token used on authenticated calls.
func (c *Client) SetSession(token string) { c.sessionToken = token }

// do executes a JSON request and decodes the response into out.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.sessionToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusUnauthorized:
		return ErrSessionExpired
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return fmt.Errorf("rate limit exceeded, please wait and retry")
	default:
		var errResp errorResponse
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s %s failed: %s", method, path, errResp.Error)
		}
		return fmt.Errorf("%s %s failed with status %d: %s", method, path, resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// ListTokens fetches one page of the token catalog.
func (c *Client) ListTokens(ctx context.Context, params ListParams) (*TokenPage, error) {
	q := url.Values{}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Sort != "" {
		q.Set("sort", params.Sort)
	}
	if params.Order != "" {
		q.Set("order", params.Order)
	}
	if params.Search != "" {
		q.Set("search", params.Search)
	}

	path := "/api/tokens"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page TokenPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetToken fetches a single token by address.
func (c *Client) GetToken(ctx context.Context, address string) (*Token, error) {
	var token Token
	if err := c.do(ctx, http.MethodGet, "/api/tokens/"+url.PathEscape(address), nil, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// GetTokenTransactions fetches a token's recorded buys and sells.
func (c *Client) GetTokenTransactions(ctx context.Context, address string) ([]Transaction, error) {
	var txs []Transaction
	if err := c.do(ctx, http.MethodGet, "/api/tokens/"+url.PathEscape(address)+"/transactions", nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// GetAccountTransactions fetches the trade history of a wallet.
func (c *Client) GetAccountTransactions(ctx context.Context, account string) ([]Transaction, error) {
	var txs []Transaction
	if err := c.do(ctx, http.MethodGet, "/api/accounts/"+url.PathEscape(account)+"/transactions", nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// GetLiquidityEvents fetches a token's migration events. A non-empty result
// means the bonding curve is complete.
func (c *Client) GetLiquidityEvents(ctx context.Context, address string) ([]LiquidityEvent, error) {
	var events []LiquidityEvent
	if err := c.do(ctx, http.MethodGet, "/api/tokens/"+url.PathEscape(address)+"/liquidity-events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// UpdateTokenMetadata patches a token's off-chain metadata. Requires an
// authenticated session for the token's creator.
func (c *Client) UpdateTokenMetadata(ctx context.Context, address string, update *MetadataUpdate) error {
	return c.do(ctx, http.MethodPatch, "/api/tokens/"+url.PathEscape(address), update, nil)
}

// GetChatMessages fetches a token's chat thread.
func (c *Client) GetChatMessages(ctx context.Context, address string) ([]ChatMessage, error) {
	var msgs []ChatMessage
	if err := c.do(ctx, http.MethodGet, "/api/tokens/"+url.PathEscape(address)+"/chat", nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// PostChatMessage posts to a token's chat thread. Requires a session.
func (c *Client) PostChatMessage(ctx context.Context, address, text string) (*ChatMessage, error) {
	var msg ChatMessage
	body := map[string]string{"text": text}
	if err := c.do(ctx, http.MethodPost, "/api/tokens/"+url.PathEscape(address)+"/chat", body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetHolders fetches a token's holder list from the block explorer API.
func (c *Client) GetHolders(ctx context.Context, address string) ([]Holder, error) {
	if c.explorerURL == "" {
		return nil, fmt.Errorf("explorer URL not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.explorerURL+"/api/v2/tokens/"+url.PathEscape(address)+"/holders", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create holders request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("holders request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read holders response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("holders request failed with status %d: %s", resp.StatusCode, string(raw))
	}

	// explorer wraps rows in an items envelope
	var envelope struct {
		Items []struct {
			Address struct {
				Hash string `json:"hash"`
			} `json:"address"`
			Value string `json:"value"`
		} `json:"items"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse holders response: %w", err)
	}

	holders := make([]Holder, 0, len(envelope.Items))
	for _, item := range envelope.Items {
		holders = append(holders, Holder{Address: item.Address.Hash, Balance: item.Value})
	}
	return holders, nil
}
