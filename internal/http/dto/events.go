package dto

type ProcessEventsRequest struct {
	MaxEvents int `json:"max_events"`
}

type ProcessEventsResponse struct {
	Processed int `json:"processed"`
}
