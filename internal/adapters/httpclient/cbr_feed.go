package httpclient

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cbrates/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html/charset"
)

// CBRFeedClient fetches the central bank's daily XML feed. A rate for the
// requested date counts as published only when the document's own date
// matches: the feed silently answers with the latest available day otherwise,
// and substituting that for an unpublished date is exactly what callers must
// never see.
type CBRFeedClient struct {
	http        *http.Client
	baseURL     string
	maxAttempts int
	backoffBase time.Duration
}

func NewCBRFeedClient(httpClient *http.Client, baseURL string, maxAttempts int, backoffBase time.Duration) *CBRFeedClient {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &CBRFeedClient{http: httpClient, baseURL: baseURL, maxAttempts: maxAttempts, backoffBase: backoffBase}
}

type valCurs struct {
	XMLName xml.Name `xml:"ValCurs"`
	Date    string   `xml:"Date,attr"`
	Valutes []valute `xml:"Valute"`
}

type valute struct {
	ID       string `xml:"ID,attr"`
	CharCode string `xml:"CharCode"`
	Nominal  string `xml:"Nominal"`
	Value    string `xml:"Value"`
}

func (c *CBRFeedClient) Fetch(ctx context.Context, date domain.BusinessDate) (map[domain.Currency]decimal.Decimal, error) {
	// The feed expects DD/MM/YYYY in the date_req query parameter.
	reqURL := fmt.Sprintf("%s?date_req=%s", c.baseURL, url.QueryEscape(date.Time().Format("02/01/2006")))

	doc, err := c.fetchDocument(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	docDate, err := time.Parse("02.01.2006", doc.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: bad document date %q", domain.ErrFeedMalformed, doc.Date)
	}
	if !docDate.Equal(date.Time()) {
		// The feed answered with an older day's document, so the requested
		// date's rates are simply not published yet.
		return nil, fmt.Errorf("%w: rates for %s not published yet (feed has %s)",
			domain.ErrFeedUnavailable, date, docDate.Format("2006-01-02"))
	}

	rates := make(map[domain.Currency]decimal.Decimal, len(domain.SupportedCurrencies))
	for _, v := range doc.Valutes {
		cur := domain.Currency(v.CharCode)
		if !cur.IsSupported() {
			continue
		}
		perUnit, parseErr := perUnitValue(v)
		if parseErr != nil {
			return nil, fmt.Errorf("%w: valute %s: %v", domain.ErrFeedMalformed, v.CharCode, parseErr)
		}
		rates[cur] = perUnit
	}

	if len(rates) == 0 {
		return nil, fmt.Errorf("%w: no supported currencies in document dated %s", domain.ErrFeedMalformed, doc.Date)
	}
	return rates, nil
}

// fetchDocument retries transport-level failures a fixed number of times with
// growing backoff before giving up with ErrFeedUnavailable.
func (c *CBRFeedClient) fetchDocument(ctx context.Context, reqURL string) (*valCurs, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		doc, retryable, err := c.doRequest(ctx, reqURL)
		if err == nil {
			return doc, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err

		if attempt < c.maxAttempts {
			backoff := time.Duration(attempt*attempt) * c.backoffBase
			logrus.Warnf("CBR feed request failed (attempt %d/%d), retrying in %s: %v", attempt, c.maxAttempts, backoff, err)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", domain.ErrFeedUnavailable, ctx.Err())
			case <-time.After(backoff):
			}
		}
	}
	return nil, lastErr
}

func (c *CBRFeedClient) doRequest(ctx context.Context, reqURL string) (*valCurs, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: failed to create request: %v", domain.ErrFeedUnavailable, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", domain.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, true, fmt.Errorf("%w: unexpected status %d", domain.ErrFeedUnavailable, resp.StatusCode)
	}

	// The feed declares windows-1251; charset.NewReaderLabel handles the
	// transcoding based on the XML declaration.
	decoder := xml.NewDecoder(resp.Body)
	decoder.CharsetReader = charset.NewReaderLabel

	var parsed valCurs
	if err = decoder.Decode(&parsed); err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrFeedMalformed, err)
	}
	return &parsed, false, nil
}

// perUnitValue normalizes the quoted value by the nominal multiplier, so a
// "10 TRY = 28,5" record yields the per-unit 2.85.
func perUnitValue(v valute) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.ReplaceAll(v.Value, ",", "."))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("bad value %q: %w", v.Value, err)
	}
	nominal, err := strconv.ParseInt(strings.TrimSpace(v.Nominal), 10, 64)
	if err != nil || nominal <= 0 {
		return decimal.Decimal{}, fmt.Errorf("bad nominal %q", v.Nominal)
	}
	return value.Div(decimal.NewFromInt(nominal)), nil
}
