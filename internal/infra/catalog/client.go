package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainlistings "stayhub/internal/domain/listings"
	domainpricing "stayhub/internal/domain/pricing"
)

var (
	ErrUnrecognizedShape = errors.New("catalog: unrecognized lodging response")
	ErrNotConfigured     = errors.New("catalog: base url not configured")
)

// Client reads lodgings from the catalog service. Only
// GET {BaseURL}/lodgings/{id} is used.
type Client struct {
	BaseURL         string
	HTTP            *http.Client
	Timeout         time.Duration
	DefaultCurrency string
	Logger          *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, currency string, logger *slog.Logger) *Client {
	return &Client{
		BaseURL:         strings.TrimRight(baseURL, "/"),
		HTTP:            &http.Client{},
		Timeout:         timeout,
		DefaultCurrency: currency,
		Logger:          logger,
	}
}

// lodgingResponse is the catalog's lodging document. pricePerNight must be a
// number; increaseFromDay may be a number, a numeric string or absent.
type lodgingResponse struct {
	ID              string                         `json:"id"`
	Title           string                         `json:"title"`
	City            string                         `json:"city"`
	HostID          string                         `json:"hostId"`
	PricePerNight   *float64                       `json:"pricePerNight"`
	IncreaseFromDay *domainpricing.SurchargeConfig `json:"increaseFromDay"`
	Currency        string                         `json:"currency"`
}

func (c *Client) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	if c == nil || c.BaseURL == "" {
		return nil, ErrNotConfigured
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	endpoint := c.BaseURL + "/lodgings/" + url.PathEscape(string(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		c.logger().Error("catalog request failed", "listing_id", id, "error", err)
		return nil, fmt.Errorf("catalog: fetch lodging %s: %w", id, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domainlistings.ErrNotFound
	case resp.StatusCode >= http.StatusBadRequest:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("catalog: lodging %s returned status %d: %s", id, resp.StatusCode, strings.TrimSpace(string(snippet)))
		c.logger().Error("catalog returned error", "listing_id", id, "status", resp.StatusCode)
		return nil, err
	}

	var body lodgingResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger().Warn("catalog decode failed", "listing_id", id, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedShape, err)
	}
	return c.toListing(id, body)
}

func (c *Client) toListing(id domainlistings.ListingID, body lodgingResponse) (*domainlistings.Listing, error) {
	if body.PricePerNight == nil {
		return nil, fmt.Errorf("%w: pricePerNight missing", ErrUnrecognizedShape)
	}
	if body.ID != "" && body.ID != string(id) {
		return nil, fmt.Errorf("%w: id %q does not match %q", ErrUnrecognizedShape, body.ID, id)
	}
	surcharge := domainpricing.NoSurcharge()
	if body.IncreaseFromDay != nil {
		surcharge = *body.IncreaseFromDay
	}
	currency := body.Currency
	if strings.TrimSpace(currency) == "" {
		currency = c.DefaultCurrency
	}
	title := body.Title
	if strings.TrimSpace(title) == "" {
		title = string(id)
	}
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:              id,
		Host:            domainlistings.HostID(body.HostID),
		Title:           title,
		City:            body.City,
		PricePerNight:   body.PricePerNight,
		IncreaseFromDay: surcharge.String(),
		Currency:        currency,
		Now:             time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedShape, err)
	}
	return listing, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

var _ domainlistings.Reader = (*Client)(nil)
