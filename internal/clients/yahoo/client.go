package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

var (
	_ portssvc.PriceProvider = (*Client)(nil)
	_ portssvc.FXProvider    = (*Client)(nil)
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Client fetches daily price history and exchange rates from the Yahoo
// Finance chart API. It satisfies both outbound provider ports; FX pairs are
// just chart symbols of the form "USDCAD=X".
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Yahoo Finance client. baseURL may be empty.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// DailyHistory fetches daily OHLC records for [start, end]. An empty series
// means the provider has no data for the window, not an error.
func (c *Client) DailyHistory(ctx context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error) {
	chart, err := c.fetchChart(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if chart == nil || len(chart.Indicators.Quote) == 0 {
		return nil, nil
	}

	quote := chart.Indicators.Quote[0]
	points := make([]domain.PricePoint, 0, len(chart.Timestamp))
	for i, ts := range chart.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		point := domain.PricePoint{
			Symbol:    symbol,
			TradeDate: domain.NormalizeDate(time.Unix(ts, 0).UTC()),
			Close:     decimalFrom(quote.Close[i]),
		}
		if i < len(quote.Open) {
			point.Open = decimalFrom(quote.Open[i])
		}
		if i < len(quote.High) {
			point.High = decimalFrom(quote.High[i])
		}
		if i < len(quote.Low) {
			point.Low = decimalFrom(quote.Low[i])
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			point.Volume = *quote.Volume[i]
		}
		points = append(points, point)
	}
	return points, nil
}

// Rate fetches the current rate for a currency pair.
func (c *Client) Rate(ctx context.Context, fromCode, toCode string) (decimal.Decimal, error) {
	end := time.Now().UTC()
	rates, err := c.DailyRates(ctx, fromCode, toCode, end.AddDate(0, 0, -7), end)
	if err != nil {
		return decimal.Zero, err
	}
	var latest time.Time
	var rate decimal.Decimal
	for date, r := range rates {
		if date.After(latest) {
			latest = date
			rate = r
		}
	}
	if latest.IsZero() {
		return decimal.Zero, fmt.Errorf("no rate data for %s/%s", fromCode, toCode)
	}
	return rate, nil
}

// DailyRates fetches a daily rate series for a currency pair.
func (c *Client) DailyRates(ctx context.Context, fromCode, toCode string, start, end time.Time) (map[time.Time]decimal.Decimal, error) {
	pairSymbol := fmt.Sprintf("%s%s=X", fromCode, toCode)
	chart, err := c.fetchChart(ctx, pairSymbol, start, end)
	if err != nil {
		return nil, err
	}
	if chart == nil || len(chart.Indicators.Quote) == 0 {
		return map[time.Time]decimal.Decimal{}, nil
	}

	quote := chart.Indicators.Quote[0]
	rates := make(map[time.Time]decimal.Decimal, len(chart.Timestamp))
	for i, ts := range chart.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		date := domain.NormalizeDate(time.Unix(ts, 0).UTC())
		rates[date] = decimalFrom(quote.Close[i])
	}
	return rates, nil
}

// chartResult is one result block of the Yahoo chart API response.
type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

func (c *Client) fetchChart(ctx context.Context, symbol string, start, end time.Time) (*chartResult, error) {
	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("period1", strconv.FormatInt(start.Unix(), 10))
	// period2 is exclusive; push it past end-of-day so the end date is
	// included.
	params.Add("period2", strconv.FormatInt(end.AddDate(0, 0, 1).Unix(), 10))

	reqURL := c.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var parsed struct {
		Chart struct {
			Result []chartResult `json:"result"`
			Error  *struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			} `json:"error"`
		} `json:"chart"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse provider response: %w", err)
	}
	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("provider error %s: %s", parsed.Chart.Error.Code, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, nil
	}
	return &parsed.Chart.Result[0], nil
}

func decimalFrom(f *float64) decimal.Decimal {
	if f == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*f)
}
