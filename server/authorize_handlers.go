package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/halcyon-id/go-authz-endpoint/authfw"
	"github.com/halcyon-id/go-authz-endpoint/flow"
	"github.com/halcyon-id/go-authz-endpoint/oauthmodel"
)

const contentTypeJSON = "application/json; charset=utf-8"

// Authorize handles GET /oauth2/authorize.
func (s *Server) Authorize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := flowRequest(r, r.URL.Query())
		s.writeFlowResponse(w, r, s.flow.Authorize(r.Context(), req))
	}
}

// AuthorizePost handles POST /oauth2/authorize: the consent page postback
// and clients that submit the authorization request as a form.
func (s *Server) AuthorizePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, http.StatusBadRequest, oauthmodel.ErrorInvalidRequest, "malformed form body")
			return
		}
		// r.Form merges the query string and the form body, so a parameter
		// smuggled through both surfaces as a duplicate.
		req := flowRequest(r, r.Form)
		s.writeFlowResponse(w, r, s.flow.AuthorizePost(r.Context(), req))
	}
}

// flowRequest lifts an HTTP request into the flow's transport-agnostic
// request, promoting the framework continuation parameters to attributes.
func flowRequest(r *http.Request, values url.Values) *flow.Request {
	return &flow.Request{
		Method:         r.Method,
		Params:         values,
		FlowStatus:     authfw.FlowStatus(values.Get(flow.ParamAuthnFlowStatus)),
		SessionDataKey: values.Get(flow.ParamSessionDataKey),
	}
}

func (s *Server) writeFlowResponse(w http.ResponseWriter, r *http.Request, resp *flow.Response) {
	s.metrics.ObserveAuthorizeResponse(resp)
	if resp.IsRedirect() {
		if strings.HasPrefix(resp.Location, s.config.GetConsentPageURL()) {
			s.metrics.ObserveConsentPrompt()
		}
		http.Redirect(w, r, resp.Location, resp.Status)
		return
	}

	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.WriteHeader(resp.Status)
	if _, err := w.Write(resp.Body); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("writing authorize response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, errorCode, description string) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
