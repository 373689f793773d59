package flow

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// JSONContentType is the content type for JSON response bodies.
const JSONContentType = "application/json"

// Response is the transport-agnostic result of running the flow: either a
// redirect (Status 302 with Location set) or a direct body (Status with
// ContentType and Body set). The server layer writes it to the wire.
type Response struct {
	Status      int
	Location    string
	ContentType string
	Body        []byte
}

// IsRedirect reports whether the response is delivered as an HTTP redirect.
func (r *Response) IsRedirect() bool {
	return r.Location != ""
}

// redirect builds a 302 response to target.
func redirect(target string) *Response {
	return &Response{Status: http.StatusFound, Location: target}
}

// redirectEnvelope builds the indirect delivery shape used for the form_post
// response mode: a 200 with a JSON body naming the redirect target, which a
// browser-side form then auto-posts to instead of following a 3xx.
func redirectEnvelope(target string) *Response {
	body, err := json.Marshal(struct {
		URL string `json:"url"`
	}{URL: target})
	if err != nil {
		return errorBody(http.StatusInternalServerError, "server_error", "failed to encode response")
	}
	return &Response{Status: http.StatusOK, ContentType: JSONContentType, Body: body}
}

// errorBody builds a direct JSON error response for requests that never
// established (or have lost) a trustworthy redirect target.
func errorBody(status int, errorCode, description string) *Response {
	body, _ := json.Marshal(struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description,omitempty"`
	}{Error: errorCode, ErrorDescription: description})
	return &Response{Status: status, ContentType: JSONContentType, Body: body}
}

// appendQuery merges params into the query string of rawURL, preserving any
// query parameters the URL already carries.
func appendQuery(rawURL string, params url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrapf(err, "[appendQuery] parsing %q", rawURL)
	}
	q := u.Query()
	for name, values := range params {
		for _, v := range values {
			q.Set(name, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
