// Package ratings scrapes published player ratings from team roster pages.
package ratings

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/fortuna/tradedesk/internal/reconciliation"
	"github.com/fortuna/tradedesk/internal/teams"
)

const (
	// DefaultBaseURL of the ratings site
	DefaultBaseURL = "https://www.2kratings.com"

	// UserAgent for requests
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	requestTimeout = 30 * time.Second
	maxPageBytes   = 5 << 20
)

// Config configures a Client.
type Config struct {
	BaseURL string
	// Headless renders pages in Chrome instead of plain HTTP.
	Headless bool
	// RequestsPerSecond caps request rate. Zero or less means no limit.
	RequestsPerSecond float64
	Selectors         Selectors
}

// Client fetches team rating pages with rate limiting
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  logrus.FieldLogger

	// Chromedp context for headless browser
	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewClient creates a ratings client. Close must be called to release the
// browser when Headless is set.
func NewClient(cfg Config, logger logrus.FieldLogger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Selectors == (Selectors{}) {
		cfg.Selectors = DefaultSelectors
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: requestTimeout},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}

	if cfg.Headless {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(UserAgent),
		)
		c.allocCtx, c.cancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}

	return c
}

// Close releases resources
func (c *Client) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}

// TeamURL returns the roster page URL for a franchise.
func (c *Client) TeamURL(team teams.Name) (string, error) {
	slug, ok := Slug(team)
	if !ok {
		return "", fmt.Errorf("no ratings page for team %q", team)
	}
	return fmt.Sprintf("%s/teams/%s", c.cfg.BaseURL, slug), nil
}

// FetchTeam scrapes the current ratings for one franchise.
func (c *Client) FetchTeam(ctx context.Context, team teams.Name) ([]reconciliation.ExternalRating, error) {
	url, err := c.TeamURL(team)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var html string
	if c.cfg.Headless {
		html, err = c.render(ctx, url)
	} else {
		html, err = c.get(ctx, url)
	}
	if err != nil {
		return nil, err
	}

	result, err := ParseTeamPage(strings.NewReader(html), c.cfg.Selectors, url)
	if err != nil {
		return nil, err
	}

	log := c.logger.WithFields(logrus.Fields{"team": team, "players": len(result.Ratings)})
	if len(result.Skipped) > 0 {
		log.WithField("skipped", result.Skipped).Warn("rows without a readable rating")
	}
	log.Debug("fetched team ratings")

	return result.Ratings, nil
}

func (c *Client) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", url, err)
	}
	return string(body), nil
}

// render loads the page in headless Chrome for sites that build the table
// client-side.
func (c *Client) render(ctx context.Context, url string) (string, error) {
	browserCtx, cancel := chromedp.NewContext(c.allocCtx)
	defer cancel()

	// Stop the browser tab when the caller gives up.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, requestTimeout)
	defer cancelTimeout()

	var htmlContent string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(c.cfg.Selectors.Row, chromedp.ByQuery),
		chromedp.OuterHTML(`html`, &htmlContent, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp error: %w", err)
	}

	if htmlContent == "" {
		return "", fmt.Errorf("empty HTML content returned")
	}
	return htmlContent, nil
}
