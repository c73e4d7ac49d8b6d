package packing

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Container is the container section of a create-shipment request.
type Container struct {
	ContainerX int     `json:"container_x"`
	ContainerY int     `json:"container_y"`
	ContainerZ int     `json:"container_z"`
	MaxWeight  float64 `json:"max_weight"`
}

// Box is one box to be packed.
type Box struct {
	CustomerID string  `json:"customer_id"`
	Length     int     `json:"length"`
	Breadth    int     `json:"breadth"`
	Height     int     `json:"height"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Weight     float64 `json:"weight"`
	Fragile    bool    `json:"fragile"`
}

// ShipmentRequest is the create-shipment body.
type ShipmentRequest struct {
	Container Container `json:"container"`
	Boxes     []Box     `json:"boxes"`
}

// ShipmentResponse acknowledges a created shipment.
type ShipmentResponse struct {
	ShipmentID string `json:"shipment_id"`
	Message    string `json:"message"`
	TotalBoxes int    `json:"total_boxes"`
	CreatedAt  string `json:"created_at"`
}

// BoxDetails is a packed box as the service stores it.
type BoxDetails struct {
	Box
	BoxID      string `json:"box_id"`
	ShipmentID string `json:"-"`
}

// ShipmentSummary is one entry of the shipment list. The stored layout is
// not kept.
type ShipmentSummary struct {
	ShipmentID string    `json:"shipment_id"`
	Container  Container `json:"container"`
	TotalBoxes int       `json:"total_boxes"`
	Status     string    `json:"status"`
	CreatedAt  string    `json:"created_at"`
}

//go:embed shipment_request.schema.json
var requestSchemaJSON string

var (
	requestSchemaOnce sync.Once
	requestSchema     *jsonschema.Schema
	requestSchemaErr  error
)

func compiledRequestSchema() (*jsonschema.Schema, error) {
	requestSchemaOnce.Do(func() {
		requestSchema, requestSchemaErr = jsonschema.CompileString("shipment_request.schema.json", requestSchemaJSON)
	})
	return requestSchema, requestSchemaErr
}

// ValidateRequest checks a raw create-shipment body against the request
// schema.
func ValidateRequest(raw []byte) error {
	s, err := compiledRequestSchema()
	if err != nil {
		return fmt.Errorf("compile request schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("shipment request is not JSON: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("invalid shipment request: %w", err)
	}
	return nil
}

// ReadRequestFile loads and validates a create-shipment body from disk.
func ReadRequestFile(path string) (ShipmentRequest, error) {
	var sr ShipmentRequest
	raw, err := os.ReadFile(path)
	if err != nil {
		return sr, fmt.Errorf("read shipment request: %w", err)
	}
	if err := ValidateRequest(raw); err != nil {
		return sr, err
	}
	if err := json.Unmarshal(raw, &sr); err != nil {
		return sr, fmt.Errorf("decode shipment request: %w", err)
	}
	return sr, nil
}
