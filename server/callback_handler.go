package server

import (
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/halcyon-id/go-authz-endpoint/authfw"
	"github.com/halcyon-id/go-authz-endpoint/flow"
	"github.com/halcyon-id/go-authz-endpoint/oauthmodel"
)

// OAuthCallbackHandler receives the upstream provider's redirect after a
// federated login. The state parameter carries the session data key, so
// after the authenticator has recorded the outcome the handler re-enters
// the authorize flow as a completed authentication.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.callback == nil {
			http.NotFound(w, r)
			return
		}

		// r.FormValue reads query params and a form_post body alike
		state := r.FormValue("state")
		code := r.FormValue("code")
		upstreamError := r.FormValue("error")
		upstreamErrorDesc := r.FormValue("error_description")

		err := s.callback.HandleCallback(r.Context(), state, code, upstreamError, upstreamErrorDesc)
		if err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("federated login callback failed")
			writeJSONError(w, http.StatusInternalServerError, oauthmodel.ErrorServerError,
				"failed to complete the federated login")
			return
		}

		req := &flow.Request{
			Method:         r.Method,
			Params:         url.Values{},
			FlowStatus:     authfw.FlowStatusSuccessCompleted,
			SessionDataKey: state,
		}
		s.writeFlowResponse(w, r, s.flow.Authorize(r.Context(), req))
	}
}
