// Package client talks to the upstream property backend over REST.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/stwalsh4118/wealthmap/internal/models"
)

// ErrUpstream is returned when the backend answers with a non-success status.
var ErrUpstream = errors.New("upstream property backend error")

// maxErrorBody caps how much of an error response is kept for the message.
const maxErrorBody = 512

// IDBatchSize is the most ids sent in one ?ids= query.
const IDBatchSize = 200

// PropertyClient fetches properties from the upstream backend.
type PropertyClient struct {
	http    *http.Client
	baseURL string
}

// NewPropertyClient creates a client for baseURL with a per-request timeout.
func NewPropertyClient(baseURL string, timeout time.Duration) *PropertyClient {
	return &PropertyClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Fetch issues GET /properties with the optional bbox and value range.
func (c *PropertyClient) Fetch(ctx context.Context, q models.PropertyQuery) ([]models.Property, error) {
	params := url.Values{}
	if q.BBox != nil {
		params.Set("bbox", q.BBox.String())
	}
	if q.MinValue != nil {
		params.Set("minValue", strconv.FormatFloat(*q.MinValue, 'f', -1, 64))
	}
	if q.MaxValue != nil {
		params.Set("maxValue", strconv.FormatFloat(*q.MaxValue, 'f', -1, 64))
	}

	var fc models.FeatureCollection
	found, err := c.get(ctx, "/properties", params, &fc)
	if err != nil {
		return nil, err
	}
	if !found {
		return []models.Property{}, nil
	}
	props := fc.Properties()
	if q.BBox == nil {
		return props, nil
	}

	// The backend may answer with whole index tiles; keep the box exact.
	inside := props[:0]
	for _, p := range props {
		if q.BBox.Contains(p.Latitude, p.Longitude) {
			inside = append(inside, p)
		}
	}
	return inside, nil
}

// FindByIDs issues GET /properties?ids=a,b,c, IDBatchSize ids at a time,
// and returns the merged results in request order.
func (c *PropertyClient) FindByIDs(ctx context.Context, ids []string) ([]models.Property, error) {
	out := []models.Property{}
	for start := 0; start < len(ids); start += IDBatchSize {
		end := min(start+IDBatchSize, len(ids))

		var fc models.FeatureCollection
		found, err := c.get(ctx, "/properties", url.Values{"ids": {strings.Join(ids[start:end], ",")}}, &fc)
		if err != nil {
			return nil, fmt.Errorf("ids %d-%d: %w", start, end-1, err)
		}
		if found {
			out = append(out, fc.Properties()...)
		}
	}
	return out, nil
}

// FindByID issues GET /properties/{id}. A 404 yields nil, nil.
func (c *PropertyClient) FindByID(ctx context.Context, id string) (*models.Property, error) {
	var feature models.Feature
	found, err := c.get(ctx, "/properties/"+url.PathEscape(id), nil, &feature)
	if err != nil || !found {
		return nil, err
	}

	props := models.FeatureCollection{Features: []models.Feature{feature}}.Properties()
	return &props[0], nil
}

// get decodes a JSON response into out. It reports found=false on 404.
func (c *PropertyClient) get(ctx context.Context, path string, params url.Values, out interface{}) (bool, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return false, fmt.Errorf("%w: %s returned %d: %s", ErrUpstream, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return true, nil
}
