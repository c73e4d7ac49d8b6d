package packing

import "fmt"

// FetchError is a failed call to the packing service: a non-success status
// or a transport failure. Message is shown to the operator as is.
type FetchError struct {
	ShipmentID string
	Status     int // 0 for transport failures
	Message    string
	Err        error
}

func (e *FetchError) Error() string { return e.Message }

func (e *FetchError) Unwrap() error { return e.Err }

// Describe is the log-friendly form with the status and shipment id.
func (e *FetchError) Describe() string {
	if e.Status == 0 {
		return fmt.Sprintf("fetch %q: %s", e.ShipmentID, e.Message)
	}
	return fmt.Sprintf("fetch %q: status %d: %s", e.ShipmentID, e.Status, e.Message)
}
