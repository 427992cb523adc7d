package holiday

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"rehabook/backend/internal/domain"
)

const defaultTimeout = 3 * time.Second

// Client fetches public holidays from a Nager.Date-style API
// (GET {base}/{year}/{country} returning [{"date":"2006-01-02", ...}]).
//
// Holidays are display-only enrichment for the availability calendar, so the
// client never returns an error: any failure is logged and degrades to an
// empty set. Booking correctness must not depend on this service being up.
type Client struct {
	http    *http.Client
	baseURL string
	country string
	log     *slog.Logger
}

func NewClient(baseURL, country string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		country: country,
		log:     log.With(slog.String("component", "holiday.client")),
	}
}

func (c *Client) Holidays(ctx context.Context, year int) []time.Time {
	url := fmt.Sprintf("%s/%d/%s", c.baseURL, year, c.country)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.log.Warn("holiday request build failed", slog.Any("err", err), slog.Int("year", year))
		return nil
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("holiday fetch failed", slog.Any("err", err), slog.Int("year", year))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("holiday fetch bad status", slog.Int("status", resp.StatusCode), slog.Int("year", year))
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		c.log.Warn("holiday body read failed", slog.Any("err", err), slog.Int("year", year))
		return nil
	}

	var payload []struct {
		Date string `json:"date"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.log.Warn("holiday payload malformed", slog.Any("err", err), slog.Int("year", year))
		return nil
	}

	dates := make([]time.Time, 0, len(payload))
	for _, h := range payload {
		d, err := domain.ParseDate(h.Date)
		if err != nil {
			c.log.Warn("holiday date malformed", slog.String("date", h.Date), slog.Int("year", year))
			continue
		}
		dates = append(dates, d)
	}
	return dates
}
