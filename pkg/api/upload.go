package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// MaxImageSize caps token images at 1 MB. Enforced before any bytes are sent
// so an oversized file never reaches the upload endpoint.
const MaxImageSize = 1 << 20

// ErrImageTooLarge is returned for images over MaxImageSize.
var ErrImageTooLarge = fmt.Errorf("image exceeds %d byte limit", MaxImageSize)

// uploadResponse is the body returned by the upload endpoint.
type uploadResponse struct {
	URL string `json:"url"`
}

// UploadImage sends an image to the upload endpoint and returns its
// content-addressed URL.
func (c *Client) UploadImage(ctx context.Context, filename string, content []byte) (string, error) {
	if len(content) > MaxImageSize {
		return "", ErrImageTooLarge
	}
	if len(content) == 0 {
		return "", fmt.Errorf("image is empty")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("failed to write upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.sessionToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var errResp errorResponse
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
			return "", fmt.Errorf("upload failed: %s", errResp.Error)
		}
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(raw))
	}

	var result uploadResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("failed to parse upload response: %w", err)
	}
	if result.URL == "" {
		return "", fmt.Errorf("upload returned no URL")
	}
	return result.URL, nil
}
