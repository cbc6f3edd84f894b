package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTokensParams(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(TokenPage{
			Tokens: []Token{{Address: "0x1", Name: "First", Symbol: "FST"}},
			Page:   2, TotalPages: 5, Total: 90,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	page, err := c.ListTokens(context.Background(), ListParams{
		Page: 2, Limit: 20, Sort: "created_at", Order: "desc", Search: "dog",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"2"}, gotQuery["page"])
	assert.Equal(t, []string{"20"}, gotQuery["limit"])
	assert.Equal(t, []string{"created_at"}, gotQuery["sort"])
	assert.Equal(t, []string{"desc"}, gotQuery["order"])
	assert.Equal(t, []string{"dog"}, gotQuery["search"])
	assert.Len(t, page.Tokens, 1)
	assert.Equal(t, 5, page.TotalPages)
}

func TestGetTokenNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").GetToken(context.Background(), "0xdead")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionExpiredOnUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "").UpdateTokenMetadata(context.Background(), "0x1", &MetadataUpdate{})
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestUpdateTokenMetadata(t *testing.T) {
	var gotMethod, gotAuth string
	var gotBody MetadataUpdate
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	c.SetSession("tok123")
	err := c.UpdateTokenMetadata(context.Background(), "0x1", &MetadataUpdate{Description: "hello", Twitter: "@x"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "Bearer tok123", gotAuth)
	assert.Equal(t, "hello", gotBody.Description)
}

type stubSigner struct{ sig string }

func (s stubSigner) SignMessage(data []byte) (string, error) { return s.sig, nil }

func TestAuthenticateFlow(t *testing.T) {
	var verifyReq map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/nonce":
			json.NewEncoder(w).Encode(nonceResponse{Nonce: "abc123"})
		case "/api/auth/verify":
			json.NewDecoder(r.Body).Decode(&verifyReq)
			json.NewEncoder(w).Encode(verifyResponse{SessionToken: "session-xyz"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	token, err := c.Authenticate(context.Background(), "0xwallet", stubSigner{sig: "0xsig"})
	require.NoError(t, err)

	assert.Equal(t, "session-xyz", token)
	assert.Equal(t, "abc123", verifyReq["nonce"])
	assert.Equal(t, "0xsig", verifyReq["signature"])
	assert.Equal(t, "session-xyz", c.sessionToken)
}

func TestUploadImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(MaxImageSize))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "logo.png", header.Filename)
		json.NewEncoder(w).Encode(uploadResponse{URL: "https://cdn.example/ipfs/Qm123"})
	}))
	defer srv.Close()

	url, err := NewClient(srv.URL, "").UploadImage(context.Background(), "logo.png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/ipfs/Qm123", url)
}

// An over-cap image must be rejected before any request is made.
func TestUploadImageTooLarge(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	oversized := bytes.Repeat([]byte{0x1}, MaxImageSize+200*1024) // ~1.2 MB
	_, err := NewClient(srv.URL, "").UploadImage(context.Background(), "big.png", oversized)
	assert.ErrorIs(t, err, ErrImageTooLarge)
	assert.Zero(t, requests, "no bytes may leave the client for an oversized image")
}

func TestGetHoldersExplorerEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/tokens/0xabc/holders", r.URL.Path)
		w.Write([]byte(`{"items":[{"address":{"hash":"0x111"},"value":"500"},{"address":{"hash":"0x222"},"value":"100"}]}`))
	}))
	defer srv.Close()

	holders, err := NewClient("http://unused", srv.URL).GetHolders(context.Background(), "0xabc")
	require.NoError(t, err)
	require.Len(t, holders, 2)
	assert.Equal(t, "0x111", holders[0].Address)
	assert.Equal(t, "500", holders[0].Balance)
}

func TestSessionExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "0xwallet",
		"exp": exp.Unix(),
	})
	token, err := raw.SignedString([]byte("backend-secret"))
	require.NoError(t, err)

	got, err := SessionExpiry(token)
	require.NoError(t, err)
	assert.True(t, got.Equal(exp))
	assert.True(t, SessionValid(token))

	assert.False(t, SessionValid(""))
	assert.False(t, SessionValid("garbage"))
}
