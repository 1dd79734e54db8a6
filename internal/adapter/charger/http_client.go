package charger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/berfenger/icharger2mqtt/internal/core/domain"
	"github.com/berfenger/icharger2mqtt/internal/core/port"

	"go.uber.org/zap"
)

const (
	PATH_UNIFIED = "/unified"
	PATH_SYSTEM  = "/system"

	maxResponseBytes = 1 << 20
)

var ErrUnexpectedStatus = errors.New("unexpected charger response status")

// HTTPClient reads the charger JSON documents from its HTTP server.
type HTTPClient struct {
	client *http.Client
	logger *zap.Logger
}

func NewHTTPClient(timeout time.Duration, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("adapter", "charger_http")),
	}
}

func (c *HTTPClient) FetchUnified(ctx context.Context, hostName string) (domain.RawSnapshot, error) {
	var unified domain.RawSnapshot
	if err := c.getJSON(ctx, hostName, PATH_UNIFIED, &unified); err != nil {
		return nil, err
	}
	return unified, nil
}

func (c *HTTPClient) FetchSystem(ctx context.Context, hostName string) (*domain.System, error) {
	var raw domain.RawSnapshot
	if err := c.getJSON(ctx, hostName, PATH_SYSTEM, &raw); err != nil {
		return nil, err
	}
	return domain.NewSystemWithLogger(raw, c.logger), nil
}

func (c *HTTPClient) getJSON(ctx context.Context, hostName, path string, target any) error {
	url := fmt.Sprintf("http://%s%s", hostName, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("charger request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s %d", ErrUnexpectedStatus, path, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(target); err != nil {
		return fmt.Errorf("charger response %s: %w", path, err)
	}
	c.logger.Debug("charger_http@get ok", zap.String("url", url))
	return nil
}

// ensure interface compliance
var _ port.ChargerClient = (*HTTPClient)(nil)
