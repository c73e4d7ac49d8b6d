package packing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"packview/internal/layout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

const scenarioA = `{"container_x": 2.0, "container_y": 2.0, "container_z": 2.0,
 "layout": [[["abc", ""], ["", ""]], [["abc", ""], ["", ""]]]}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	c := NewClient(srv.URL+"/", 5*time.Second, nil)
	t.Cleanup(func() {
		c.Close()
		srv.Close()
	})
	return c
}

// =============================================================================
// FETCH LAYOUT
// =============================================================================

func TestFetchLayout_Success(t *testing.T) {
	var gotPath, gotReqID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotReqID = r.Header.Get(RequestIDHeader)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(scenarioA))
	})

	g, err := c.FetchLayout(context.Background(), " SHIP-1A2B ")
	require.NoError(t, err)
	assert.Equal(t, "/api/check-shipment/SHIP-1A2B", gotPath)
	assert.Len(t, gotReqID, 36, "request id should be a uuid")
	assert.Equal(t, layout.Dimensions{Width: 2, Height: 2, Depth: 2}, g.Dims())

	id, err := g.At(1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, layout.BoxID("abc"), id)
}

func TestFetchLayout_EscapesShipmentID(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(scenarioA))
	})
	_, err := c.FetchLayout(context.Background(), "a/b c")
	require.NoError(t, err)
	assert.Equal(t, "/api/check-shipment/a%2Fb%20c", gotPath)
}

func TestFetchLayout_ServiceDetailIsVerbatim(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail": "Shipment not found"}`))
	})

	_, err := c.FetchLayout(context.Background(), "SHIP-NOPE")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Shipment not found", err.Error())
	assert.Equal(t, http.StatusNotFound, fe.Status)
	assert.Contains(t, fe.Describe(), "status 404")
}

func TestFetchLayout_GenericStatusMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})

	_, err := c.FetchLayout(context.Background(), "SHIP-1")
	require.Error(t, err)
	assert.Equal(t, "HTTP error! status: 502", err.Error())
}

func TestFetchLayout_MalformedLayoutIsDecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"container_x": 3, "container_y": 1, "container_z": 1, "layout": [[[""]]]}`))
	})

	_, err := c.FetchLayout(context.Background(), "SHIP-1")
	var de *layout.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "x", de.Axis)
}

func TestFetchLayout_TransportFailure(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second, nil)
	defer c.Close()

	_, err := c.FetchLayout(context.Background(), "SHIP-1")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 0, fe.Status)
	assert.NotNil(t, errors.Unwrap(fe))
}

func TestFetchLayout_EmptyID(t *testing.T) {
	c := NewClient("http://unused", time.Second, nil)
	_, err := c.FetchLayout(context.Background(), "   ")
	require.Error(t, err)
}

// =============================================================================
// LOOKUPS
// =============================================================================

func TestFetchBox(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"shipment_id": "SHIP-1", "box": {"box_id": "BOX-9", "customer_id": "C7",
			"length": 2, "breadth": 3, "height": 4, "latitude": 1.5, "longitude": -2.5, "weight": 12.5, "fragile": true}}`))
	})

	b, err := c.FetchBox(context.Background(), "BOX-9")
	require.NoError(t, err)
	assert.Equal(t, "/api/box/BOX-9", gotPath)
	assert.Equal(t, "BOX-9", b.BoxID)
	assert.Equal(t, "SHIP-1", b.ShipmentID)
	assert.Equal(t, "C7", b.CustomerID)
	assert.Equal(t, [3]int{2, 3, 4}, [3]int{b.Length, b.Breadth, b.Height})
	assert.Equal(t, 12.5, b.Weight)
	assert.True(t, b.Fragile)
}

func TestFetchBox_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail": "Box not found"}`))
	})
	_, err := c.FetchBox(context.Background(), "BOX-X")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Box not found", fe.Error())

	_, err = c.FetchBox(context.Background(), " ")
	assert.Error(t, err)
}

func TestListShipments(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/shipments", r.URL.Path)
		_, _ = w.Write([]byte(`{"count": 2, "shipments": [
			{"shipment_id": "SHIP-NEW", "total_boxes": 3, "status": "created", "created_at": "2026-02-01T10:00:00",
			 "container": {"container_x": 4, "container_y": 3, "container_z": 5, "max_weight": 100},
			 "layout": [[["x"]]], "boxes": []},
			{"shipment_id": "SHIP-OLD", "total_boxes": 1, "status": "created", "created_at": "2026-01-01T10:00:00"}
		]}`))
	})

	list, err := c.ListShipments(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "SHIP-NEW", list[0].ShipmentID)
	assert.Equal(t, 3, list[0].TotalBoxes)
	assert.Equal(t, 4, list[0].Container.ContainerX)
	assert.Equal(t, "SHIP-OLD", list[1].ShipmentID)
}

func TestListShipments_ServiceError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail": "Database error: down"}`))
	})
	_, err := c.ListShipments(context.Background())
	assert.EqualError(t, err, "Database error: down")
}

// =============================================================================
// SUBMIT SHIPMENT
// =============================================================================

func validRequest() ShipmentRequest {
	return ShipmentRequest{
		Container: Container{ContainerX: 4, ContainerY: 3, ContainerZ: 5, MaxWeight: 100},
		Boxes: []Box{
			{CustomerID: "C1", Length: 1, Breadth: 2, Height: 1, Weight: 3.5, Fragile: true},
		},
	}
}

func TestSubmitShipment(t *testing.T) {
	var got ShipmentRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/create-shipment", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"shipment_id":"SHIP-0000CAFE","message":"Shipment created successfully","total_boxes":1,"created_at":"2026-01-01T00:00:00"}`))
	})

	resp, err := c.SubmitShipment(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "SHIP-0000CAFE", resp.ShipmentID)
	assert.Equal(t, 1, resp.TotalBoxes)
	assert.Equal(t, "C1", got.Boxes[0].CustomerID)
	assert.True(t, got.Boxes[0].Fragile)
}

func TestSubmitShipment_RejectedBeforeSending(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	sr := validRequest()
	sr.Boxes[0].Length = 0
	_, err := c.SubmitShipment(context.Background(), sr)
	assert.ErrorContains(t, err, "invalid shipment request")
	assert.False(t, called)
}

func TestSubmitShipment_ServiceError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Database error: timeout"}`))
	})
	_, err := c.SubmitShipment(context.Background(), validRequest())
	assert.EqualError(t, err, "Database error: timeout")
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest([]byte(`{
	  "container": {"container_x": 2, "container_y": 2, "container_z": 2, "max_weight": 10},
	  "boxes": [{"customer_id": "c", "length": 1, "breadth": 1, "height": 1, "weight": 1, "fragile": false}]
	}`)))

	for name, body := range map[string]string{
		"no boxes":      `{"container": {"container_x": 2, "container_y": 2, "container_z": 2, "max_weight": 10}, "boxes": []}`,
		"fractional":    `{"container": {"container_x": 2.5, "container_y": 2, "container_z": 2, "max_weight": 10}, "boxes": [{"customer_id": "c", "length": 1, "breadth": 1, "height": 1, "weight": 1, "fragile": false}]}`,
		"missing field": `{"container": {"container_x": 2, "container_y": 2, "container_z": 2}, "boxes": [{"customer_id": "c", "length": 1, "breadth": 1, "height": 1, "weight": 1, "fragile": false}]}`,
		"not json":      `{`,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, ValidateRequest([]byte(body)))
		})
	}
}

// =============================================================================
// FILE SOURCE
// =============================================================================

func TestLayoutFile_PlainAndZstd(t *testing.T) {
	g, err := layout.Decode(strings.NewReader(scenarioA))
	require.NoError(t, err)

	dir := t.TempDir()
	for _, name := range []string{"SHIP-A.json", "SHIP-A.json.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, WriteLayoutFile(path, g))

			src := FileSource{Path: path}
			assert.Equal(t, "SHIP-A", src.ShipmentID())

			back, err := src.FetchLayout(context.Background(), "")
			require.NoError(t, err)
			assert.Equal(t, g.Dims(), back.Dims())
			id, err := back.At(0, 0, 0)
			require.NoError(t, err)
			assert.Equal(t, layout.BoxID("abc"), id)
		})
	}
}

func TestReadLayoutFile_Missing(t *testing.T) {
	_, err := ReadLayoutFile(filepath.Join(t.TempDir(), "nope.json"))
	var fe *FetchError
	assert.ErrorAs(t, err, &fe)
}

func TestReadRequestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "req.json")
	raw, err := json.Marshal(validRequest())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	sr, err := ReadRequestFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, sr.Container.ContainerX)
}
