// Package dto defines request and response bodies for the access endpoint.
package dto

import "time"

// AccessURI binds the :bookId path parameter.
type AccessURI struct {
	BookID uint `uri:"bookId" binding:"required,min=1"`
}

// AccessResponse is returned with 200.
type AccessResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// DeviceCapExceededResponse is returned with 409. The client shows
// OldestDeviceID and resubmits with the confirmation flag.
type DeviceCapExceededResponse struct {
	Code                 string `json:"code"`
	Error                string `json:"error"`
	RequiresConfirmation bool   `json:"requiresConfirmation"`
	OldestDeviceID       string `json:"oldestDeviceId"`
	Limit                int    `json:"limit"`
}
