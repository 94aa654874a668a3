package binance

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

// FundingRate fetches the latest funding rate from the premium index
// endpoint. Parsed from the raw payload; a missing or non-numeric field is a
// hard error, not a zero.
func (s *Source) FundingRate(ctx context.Context, symbol string) (float64, error) {
	symbol = cleanSymbol(symbol)
	if symbol == "" {
		return 0, fmt.Errorf("symbol is required")
	}
	endpoint := fmt.Sprintf("%s/fapi/v1/premiumIndex?symbol=%s", s.cfg.RESTBaseURL, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("premiumIndex status=%d body=%s", resp.StatusCode, string(body))
	}
	rate := gjson.GetBytes(body, "lastFundingRate")
	if !rate.Exists() || rate.String() == "" {
		return 0, fmt.Errorf("premiumIndex response missing lastFundingRate: %s", string(body))
	}
	return rate.Float(), nil
}
