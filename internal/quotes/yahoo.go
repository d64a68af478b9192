package quotes

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/model"
)

// YahooSource implements Source using the Yahoo Finance public API.
type YahooSource struct {
	client *http.Client
	log    zerolog.Logger
}

// NewYahooSource creates a Yahoo Finance source. proxyURL may be empty.
func NewYahooSource(proxyURL string, log zerolog.Logger) *YahooSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooSource{
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
		log: log.With().Str("module", "quotes").Str("source", "yahoo").Logger(),
	}
}

func (s *YahooSource) Name() string { return "yahoo" }

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// yahooQuote is the response structure from the quoteSummary API, reduced to
// the modules this package requests.
type yahooQuote struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				ShortName           string   `json:"shortName"`
				Currency            string   `json:"currency"`
				RegularMarketPrice  yahooNum `json:"regularMarketPrice"`
				MarketCap           yahooNum `json:"marketCap"`
				RegularMarketVolume yahooNum `json:"regularMarketVolume"`
			} `json:"price"`
			SummaryProfile struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
				Country  string `json:"country"`
			} `json:"summaryProfile"`
			SummaryDetail struct {
				PreviousClose    yahooNum `json:"previousClose"`
				AverageVolume    yahooNum `json:"averageVolume"`
				FiftyTwoWeekHigh yahooNum `json:"fiftyTwoWeekHigh"`
				FiftyTwoWeekLow  yahooNum `json:"fiftyTwoWeekLow"`
				TrailingPE       yahooNum `json:"trailingPE"`
				DividendYield    yahooNum `json:"dividendYield"`
				Beta             yahooNum `json:"beta"`
			} `json:"summaryDetail"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// yahooNum unwraps Yahoo's {"raw": 1.23, "fmt": "1.23"} number envelopes.
type yahooNum struct {
	Raw float64 `json:"raw"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func (s *YahooSource) get(u string, out interface{}) error {
	req, err := http.NewRequest("GET", u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("yahoo decode: %w", err)
	}
	return nil
}

func (s *YahooSource) fetchChart(symbol, interval, rng string) ([]model.OHLCV, error) {
	u := fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=%s&range=%s",
		url.PathEscape(symbol), interval, rng)

	var chart yahooChart
	if err := s.get(u, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		if chart.Chart.Error.Code == "Not Found" {
			return nil, ErrUnavailable
		}
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, ErrUnavailable
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, ErrUnavailable
	}
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o := toFloat(quote.Open[i])
		h := toFloat(quote.High[i])
		l := toFloat(quote.Low[i])
		c := toFloat(quote.Close[i])
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: toFloat(quote.Volume[i]),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// GetPrice returns the most recent daily close for a symbol.
func (s *YahooSource) GetPrice(symbol string) (float64, error) {
	bars, err := s.fetchChart(symbol, "1d", "1d")
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, ErrUnavailable
	}
	return bars[len(bars)-1].Close, nil
}

// GetHistory returns up to days daily bars, oldest first.
func (s *YahooSource) GetHistory(symbol string, days int) ([]model.OHLCV, error) {
	rng := "2y"
	switch {
	case days <= 30:
		rng = "1mo"
	case days <= 90:
		rng = "3mo"
	case days <= 180:
		rng = "6mo"
	case days <= 365:
		rng = "1y"
	}
	bars, err := s.fetchChart(symbol, "1d", rng)
	if err != nil {
		return nil, err
	}
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

// GetInfo returns a company and quote snapshot from the quoteSummary API.
func (s *YahooSource) GetInfo(symbol string) (*model.StockInfo, error) {
	u := fmt.Sprintf("https://query1.finance.yahoo.com/v10/finance/quoteSummary/%s?modules=price,summaryProfile,summaryDetail",
		url.PathEscape(symbol))

	var quote yahooQuote
	if err := s.get(u, &quote); err != nil {
		return nil, err
	}
	if quote.QuoteSummary.Error != nil {
		if quote.QuoteSummary.Error.Code == "Not Found" {
			return nil, ErrUnavailable
		}
		return nil, fmt.Errorf("yahoo api error: %s", quote.QuoteSummary.Error.Description)
	}
	if len(quote.QuoteSummary.Result) == 0 {
		return nil, ErrUnavailable
	}

	r := quote.QuoteSummary.Result[0]
	info := &model.StockInfo{
		Symbol:        model.NormalizeSymbol(symbol),
		Name:          r.Price.ShortName,
		Sector:        r.SummaryProfile.Sector,
		Industry:      r.SummaryProfile.Industry,
		Country:       r.SummaryProfile.Country,
		Currency:      r.Price.Currency,
		MarketCap:     r.Price.MarketCap.Raw,
		Price:         r.Price.RegularMarketPrice.Raw,
		PreviousClose: r.SummaryDetail.PreviousClose.Raw,
		Volume:        r.Price.RegularMarketVolume.Raw,
		AvgVolume:     r.SummaryDetail.AverageVolume.Raw,
		High52w:       r.SummaryDetail.FiftyTwoWeekHigh.Raw,
		Low52w:        r.SummaryDetail.FiftyTwoWeekLow.Raw,
		PERatio:       r.SummaryDetail.TrailingPE.Raw,
		DividendYield: r.SummaryDetail.DividendYield.Raw,
		Beta:          r.SummaryDetail.Beta.Raw,
	}
	if info.Name == "" {
		info.Name = info.Symbol
	}
	if info.Sector == "" {
		info.Sector = "Unknown"
	}
	if info.Industry == "" {
		info.Industry = "Unknown"
	}
	info.DayChange = info.Price - info.PreviousClose
	if info.PreviousClose != 0 {
		info.DayChangePercent = info.DayChange / info.PreviousClose * 100
	}
	return info, nil
}

// majorIndices maps display names to Yahoo index tickers.
var majorIndices = map[string]string{
	"S&P 500":      "^GSPC",
	"NASDAQ":       "^IXIC",
	"DOW":          "^DJI",
	"Russell 2000": "^RUT",
}

// MarketOverview fetches the latest value and day change of the major
// indices. A failing index is skipped, not fatal.
func (s *YahooSource) MarketOverview() []model.IndexQuote {
	names := make([]string, 0, len(majorIndices))
	for name := range majorIndices {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]model.IndexQuote, 0, len(names))
	for _, name := range names {
		symbol := majorIndices[name]
		bars, err := s.fetchChart(symbol, "1d", "5d")
		if err != nil || len(bars) < 2 {
			s.log.Warn().Err(err).Str("index", name).Msg("index quote unavailable")
			continue
		}
		current := bars[len(bars)-1].Close
		previous := bars[len(bars)-2].Close
		q := model.IndexQuote{
			Name:   name,
			Symbol: symbol,
			Price:  current,
			Change: current - previous,
		}
		if previous != 0 {
			q.ChangePercent = q.Change / previous * 100
		}
		out = append(out, q)
	}
	return out
}
