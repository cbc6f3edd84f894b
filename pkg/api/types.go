package api

import "time"

// Token is the backend's record of a launched token.
type Token struct {
	Address     string    `json:"address"`
	Name        string    `json:"name"`
	Symbol      string    `json:"symbol"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Twitter     string    `json:"twitter,omitempty"`
	Telegram    string    `json:"telegram,omitempty"`
	Website     string    `json:"website,omitempty"`
	Creator     string    `json:"creator"`
	IsListed    bool      `json:"is_listed"`
	EthReserve  string    `json:"eth_reserve,omitempty"` // base units, decimal string
	CreatedAt   time.Time `json:"created_at"`
}

// TokenPage is one page of the token catalog.
type TokenPage struct {
	Tokens     []Token `json:"tokens"`
	Page       int     `json:"page"`
	TotalPages int     `json:"total_pages"`
	Total      int     `json:"total"`
}

// Transaction is a recorded buy or sell.
type Transaction struct {
	Hash        string    `json:"hash"`
	Token       string    `json:"token"`
	Account     string    `json:"account"`
	Kind        string    `json:"kind"` // "buy" or "sell"
	EthAmount   string    `json:"eth_amount"`
	TokenAmount string    `json:"token_amount"`
	Timestamp   time.Time `json:"timestamp"`
}

// LiquidityEvent records a token's migration to an external pool. Its
// existence marks the bonding curve as complete.
type LiquidityEvent struct {
	Token       string    `json:"token"`
	EthAmount   string    `json:"eth_amount"`
	TokenAmount string    `json:"token_amount"`
	Timestamp   time.Time `json:"timestamp"`
}

// ChatMessage is one per-token chat entry.
type ChatMessage struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Holder is one row of a token's holder list, sourced from the block
// explorer API.
type Holder struct {
	Address string `json:"address"`
	Balance string `json:"balance"` // base units, decimal string
}

// MetadataUpdate is the PATCH body for a token's off-chain metadata. The
// same call serves the launch pipeline and the standalone retry path.
type MetadataUpdate struct {
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Twitter     string `json:"twitter,omitempty"`
	Telegram    string `json:"telegram,omitempty"`
	Website     string `json:"website,omitempty"`
}

// ListParams control token catalog pagination, search and sort.
type ListParams struct {
	Page   int
	Limit  int
	Sort   string // e.g. "created_at", "market_cap"
	Order  string // "asc" or "desc"
	Search string
}

// errorResponse is the backend's error envelope.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
