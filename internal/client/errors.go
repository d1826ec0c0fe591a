package client

import (
	"fmt"
	"strings"
)

// APIError is one entry of the platform's error list response.
type APIError struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// AuthenticationError is returned when the client-credentials grant is
// rejected. It carries the raw token endpoint response for diagnostics.
type AuthenticationError struct {
	ShopID   string
	Response *Response
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("api client authentication failed for shop %s: %s", e.ShopID, string(e.Response.Body))
}

// RequestError is returned when a data call is rejected or a redirect is
// encountered. The message joins the platform's error details.
type RequestError struct {
	ShopID   string
	Response *Response
	Errors   []APIError
}

func (e *RequestError) Error() string {
	details := make([]string, 0, len(e.Errors))
	for _, apiErr := range e.Errors {
		details = append(details, apiErr.Detail)
	}
	return fmt.Sprintf("request failed with error: %s for shop %s", strings.Join(details, ", "), e.ShopID)
}

const redirectDetail = "Got a redirect response from the URL, the URL should point to the Shop without redirect"

func newRedirectError(shopID string, resp *Response) *RequestError {
	code := fmt.Sprintf("%d", resp.StatusCode)
	return &RequestError{
		ShopID:   shopID,
		Response: resp,
		Errors:   []APIError{{Code: code, Status: code, Title: code, Detail: redirectDetail}},
	}
}
