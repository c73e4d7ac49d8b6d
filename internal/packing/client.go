// Package packing is the client for the external packing service: fetch a
// shipment's occupancy grid, look up boxes and shipments, and submit a
// container plus boxes for packing.
package packing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"packview/internal/layout"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries a per-request id for correlating service logs.
const RequestIDHeader = "X-Request-ID"

// maxBodyBytes bounds a layout response.
const maxBodyBytes = 64 << 20

// Fetcher retrieves the layout for a shipment.
type Fetcher interface {
	FetchLayout(ctx context.Context, shipmentID string) (*layout.Grid, error)
}

// BoxFetcher looks up a single packed box.
type BoxFetcher interface {
	FetchBox(ctx context.Context, boxID string) (*BoxDetails, error)
}

var (
	_ Fetcher    = (*Client)(nil)
	_ BoxFetcher = (*Client)(nil)
)

// Client talks to the packing service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient returns a client for the service rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
		logger: logger,
	}
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// FetchLayout loads the occupancy grid for shipmentID. Service errors come
// back as *FetchError carrying the service's message verbatim; malformed
// layouts as *layout.DecodeError.
func (c *Client) FetchLayout(ctx context.Context, shipmentID string) (*layout.Grid, error) {
	shipmentID = strings.TrimSpace(shipmentID)
	if shipmentID == "" {
		return nil, &FetchError{Message: "shipment id is required"}
	}

	endpoint := c.baseURL + "/api/check-shipment/" + url.PathEscape(shipmentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{ShipmentID: shipmentID, Message: "invalid request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, reqID, err := c.do(req)
	if err != nil {
		return nil, &FetchError{ShipmentID: shipmentID, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxBodyBytes)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		fe := &FetchError{ShipmentID: shipmentID, Status: resp.StatusCode, Message: errorDetail(body, resp.StatusCode)}
		c.logger.Warn("fetch failed",
			zap.String("shipment_id", shipmentID),
			zap.String("request_id", reqID),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", fe.Message))
		return nil, fe
	}

	g, err := layout.Decode(body)
	if err != nil {
		c.logger.Error("layout rejected",
			zap.String("shipment_id", shipmentID),
			zap.String("request_id", reqID),
			zap.Error(err))
		return nil, err
	}
	c.logger.Info("layout fetched",
		zap.String("shipment_id", shipmentID),
		zap.String("request_id", reqID),
		zap.Stringer("dims", g.Dims()))
	return g, nil
}

// SubmitShipment posts a container and its boxes for packing and returns the
// service's acknowledgement with the new shipment id.
func (c *Client) SubmitShipment(ctx context.Context, sr ShipmentRequest) (*ShipmentResponse, error) {
	payload, err := json.Marshal(sr)
	if err != nil {
		return nil, fmt.Errorf("encode shipment request: %w", err)
	}
	if err := ValidateRequest(payload); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/create-shipment", bytes.NewReader(payload))
	if err != nil {
		return nil, &FetchError{Message: "invalid request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, reqID, err := c.do(req)
	if err != nil {
		return nil, &FetchError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxBodyBytes)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Status: resp.StatusCode, Message: errorDetail(body, resp.StatusCode)}
	}

	var out ShipmentResponse
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode shipment response: %w", err)
	}
	if out.ShipmentID == "" {
		return nil, fmt.Errorf("decode shipment response: missing shipment_id")
	}
	c.logger.Info("shipment submitted",
		zap.String("shipment_id", out.ShipmentID),
		zap.String("request_id", reqID),
		zap.Int("boxes", len(sr.Boxes)))
	return &out, nil
}

// FetchBox returns the stored details of one box, including the shipment it
// belongs to.
func (c *Client) FetchBox(ctx context.Context, boxID string) (*BoxDetails, error) {
	boxID = strings.TrimSpace(boxID)
	if boxID == "" {
		return nil, &FetchError{Message: "box id is required"}
	}
	var out struct {
		Box        BoxDetails `json:"box"`
		ShipmentID string     `json:"shipment_id"`
	}
	if err := c.getJSON(ctx, "/api/box/"+url.PathEscape(boxID), boxID, &out); err != nil {
		return nil, err
	}
	if out.Box.BoxID == "" {
		out.Box.BoxID = boxID
	}
	out.Box.ShipmentID = out.ShipmentID
	return &out.Box, nil
}

// ListShipments returns every stored shipment, newest first as the service
// orders them.
func (c *Client) ListShipments(ctx context.Context) ([]ShipmentSummary, error) {
	var out struct {
		Shipments []ShipmentSummary `json:"shipments"`
		Count     int               `json:"count"`
	}
	if err := c.getJSON(ctx, "/api/shipments", "", &out); err != nil {
		return nil, err
	}
	c.logger.Debug("shipments listed", zap.Int("count", out.Count))
	return out.Shipments, nil
}

// getJSON issues a GET for path and decodes a successful body into out.
// subject names the requested entity in errors.
func (c *Client) getJSON(ctx context.Context, path, subject string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &FetchError{ShipmentID: subject, Message: "invalid request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, reqID, err := c.do(req)
	if err != nil {
		return &FetchError{ShipmentID: subject, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxBodyBytes)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		fe := &FetchError{ShipmentID: subject, Status: resp.StatusCode, Message: errorDetail(body, resp.StatusCode)}
		c.logger.Warn("lookup failed",
			zap.String("path", path),
			zap.String("request_id", reqID),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", fe.Message))
		return fe
	}
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, string, error) {
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	c.logger.Debug("packing request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.String("request_id", reqID),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))
	return resp, reqID, err
}

// errorDetail extracts {"detail": "..."} from an error body, falling back
// to a generic status message.
func errorDetail(body io.Reader, status int) string {
	var e struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.NewDecoder(body).Decode(&e); err == nil && len(e.Detail) > 0 {
		var s string
		if json.Unmarshal(e.Detail, &s) == nil && s != "" {
			return s
		}
	}
	return fmt.Sprintf("HTTP error! status: %d", status)
}
