package models

// ErrorResponse is the JSON body returned by the server for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ItemListResponse wraps a list of items together with its length.
type ItemListResponse struct {
	Items  []Item `json:"items"`
	Length int    `json:"length"`
}

// HealthResponse is returned by the health probe endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}
