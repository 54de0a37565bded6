package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"cwatch/internal/infrastructure/exchange"
)

// publicGet 公共（无签名）REST 请求，响应 JSON 解码到 out
func (c *TickerClient) publicGet(ctx context.Context, path string, out any) error {
	endpoint, err := exchange.BuildURL(c.baseURL, path)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("binance api error: %d %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
