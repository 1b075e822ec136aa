package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"taskflow/internal/auth/domain/repository"
	apperrors "taskflow/internal/shared/errors"
	"taskflow/internal/shared/logger"
)

const exchangeHeader = "X-Session-ID"

// Client calls the external identity exchange over HTTP. A single GET with
// the exchange id in a header returns the verified identity tuple.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// NewClient creates an identity exchange client. The timeout bounds the whole
// exchange call; on timeout or non-2xx the caller gets ErrExchangeFailed.
func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log.WithComponent("identity_client"),
	}
}

// ExchangeSession exchanges an opaque exchange id for a verified identity.
func (c *Client) ExchangeSession(ctx context.Context, exchangeID string) (*repository.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExchangeFailed, err)
	}
	req.Header.Set(exchangeHeader, exchangeID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warnf("Identity exchange request failed: %v", err)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExchangeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Warnf("Identity exchange rejected: status=%d body=%s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("%w: provider returned status %d", apperrors.ErrExchangeFailed, resp.StatusCode)
	}

	var ident repository.Identity
	if err := json.NewDecoder(resp.Body).Decode(&ident); err != nil {
		return nil, fmt.Errorf("%w: invalid provider response: %v", apperrors.ErrExchangeFailed, err)
	}

	if ident.ID == "" || ident.Email == "" || ident.SessionToken == "" {
		return nil, fmt.Errorf("%w: provider response missing required fields", apperrors.ErrExchangeFailed)
	}

	return &ident, nil
}

// Ensure Client implements the port
var _ repository.IdentityClient = (*Client)(nil)
