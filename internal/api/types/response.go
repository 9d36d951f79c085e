// internal/api/types/response.go
package types

// ListResponse defines a generic structure for list API responses.
// T represents the type of data contained in the 'Data' slice.
type ListResponse[T any] struct {
	Data       []T   `json:"data"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"total_count"`
}

// AccountResponse is the public view of one account.
type AccountResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	Balance     int64  `json:"balance"`
	Tier        string `json:"tier"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}
