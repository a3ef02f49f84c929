package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"regexp"
	"strings"
	"time"

	"github.com/username/akciefolio/src/database"
	"github.com/username/akciefolio/src/logger"
	"github.com/username/akciefolio/src/models"
	"golang.org/x/net/publicsuffix"
)

type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol             string  `json:"symbol"`
			RegularMarketPrice float64 `json:"regularMarketPrice"`
			Currency           string  `json:"currency"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"quoteResponse"`
}

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"

// priceServiceImpl fetches quotes from Yahoo Finance and caches them in the
// stock_prices table. Requests carry a cookie jar and Yahoo's crumb token.
type priceServiceImpl struct {
	httpClient http.Client
	crumb      string
}

// NewPriceService creates the price service. A failed session initialization
// is logged, not fatal: prices simply stay unavailable until the next refresh.
func NewPriceService(timeout time.Duration) PriceService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	s := &priceServiceImpl{
		httpClient: http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
	}

	if err := s.initializeYahooSession(); err != nil {
		logger.L.Error("Failed to initialize Yahoo Finance session. Price fetching may fail.", "error", err)
	}

	return s
}

// initializeYahooSession visits a Yahoo Finance page to obtain the cookies and
// crumb the quote endpoint requires.
func (s *priceServiceImpl) initializeYahooSession() error {
	logger.L.Info("Initializing Yahoo Finance session to get crumb and cookies...")
	req, err := http.NewRequest("GET", "https://finance.yahoo.com/quote/CEZ.PR", nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make initial request to Yahoo: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read Yahoo response body: %w", err)
	}

	re := regexp.MustCompile(`"CrumbStore":{"crumb":"(.*?)"}`)
	matches := re.FindStringSubmatch(string(body))
	if len(matches) < 2 {
		return fmt.Errorf("could not find crumb in Yahoo Finance response. The page structure may have changed")
	}

	s.crumb = matches[1]
	logger.L.Info("Successfully obtained Yahoo Finance crumb.")
	return nil
}

// RefreshPrices fetches a current quote for every stock name and upserts the
// result into the stock_prices cache. Per-stock failures become nil entries;
// the refresh as a whole only errors on storage problems.
func (s *priceServiceImpl) RefreshPrices(stockNames []string) (map[string]*float64, error) {
	result := make(map[string]*float64, len(stockNames))

	if s.crumb == "" {
		logger.L.Warn("Yahoo crumb is missing, attempting to re-initialize session.")
		if err := s.initializeYahooSession(); err != nil {
			logger.L.Error("Yahoo session re-initialization failed, marking all prices unavailable", "error", err)
		}
	}

	for _, name := range stockNames {
		time.Sleep(250 * time.Millisecond) // Respectful delay

		price, err := s.fetchQuote(name)
		if err != nil {
			logger.L.Warn("Quote fetch failed", "stock", name, "error", err)
			result[name] = nil
			if storeErr := s.storePrice(name, nil, models.PriceError); storeErr != nil {
				return result, storeErr
			}
			continue
		}
		if price == nil {
			result[name] = nil
			if storeErr := s.storePrice(name, nil, models.PriceUnavailable); storeErr != nil {
				return result, storeErr
			}
			continue
		}

		logger.L.Info("Quote fetched", "stock", name, "price", *price)
		result[name] = price
		if storeErr := s.storePrice(name, price, models.PriceAvailable); storeErr != nil {
			return result, storeErr
		}
	}

	return result, nil
}

// GetCachedPrices loads the stock_prices table as a nullable price map. Only
// rows with an available status carry a value; everything else maps to nil.
func (s *priceServiceImpl) GetCachedPrices() (map[string]*float64, error) {
	rows, err := database.DB.Query(`SELECT stock_name, current_price, status FROM stock_prices`)
	if err != nil {
		return nil, fmt.Errorf("error querying stock prices: %w", err)
	}
	defer rows.Close()

	prices := make(map[string]*float64)
	for rows.Next() {
		var name, status string
		var price *float64
		if err := rows.Scan(&name, &price, &status); err != nil {
			return nil, fmt.Errorf("error scanning stock price row: %w", err)
		}
		if status == models.PriceAvailable && price != nil {
			prices[name] = price
		} else {
			prices[name] = nil
		}
	}
	return prices, rows.Err()
}

func (s *priceServiceImpl) storePrice(stockName string, price *float64, status string) error {
	_, err := database.DB.Exec(
		`INSERT OR REPLACE INTO stock_prices (stock_name, current_price, last_updated, status) VALUES (?, ?, ?, ?)`,
		stockName, price, time.Now().Format(time.RFC3339), status)
	if err != nil {
		return fmt.Errorf("error storing price for %s: %w", stockName, err)
	}
	return nil
}

// fetchQuote tries the stock name as a ticker directly and, for Prague Stock
// Exchange listings entered without a suffix, retries with .PR appended.
// Returns (nil, nil) when Yahoo knows no such symbol.
func (s *priceServiceImpl) fetchQuote(stockName string) (*float64, error) {
	symbols := []string{stockName}
	if !strings.Contains(stockName, ".") {
		symbols = append(symbols, stockName+".PR")
	}

	var lastErr error
	for _, symbol := range symbols {
		price, err := s.getPriceForTicker(symbol)
		if err != nil {
			lastErr = err
			continue
		}
		if price != nil {
			return price, nil
		}
	}
	return nil, lastErr
}

// getPriceForTicker calls the v7 quote endpoint, which requires the crumb.
func (s *priceServiceImpl) getPriceForTicker(ticker string) (*float64, error) {
	quoteURL := fmt.Sprintf("https://query2.finance.yahoo.com/v7/finance/quote?symbols=%s&crumb=%s", ticker, s.crumb)
	req, err := http.NewRequest("GET", quoteURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call Yahoo quote API for ticker %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("yahoo quote API returned non-OK status %d for ticker %s. Body: %s", resp.StatusCode, ticker, string(bodyBytes))
	}

	var quoteData yahooQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quoteData); err != nil {
		return nil, fmt.Errorf("failed to decode Yahoo quote response for ticker %s: %w", ticker, err)
	}

	if quoteData.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("yahoo quote API returned an error for ticker %s", ticker)
	}
	if len(quoteData.QuoteResponse.Result) == 0 {
		return nil, nil
	}

	price := quoteData.QuoteResponse.Result[0].RegularMarketPrice
	return &price, nil
}
