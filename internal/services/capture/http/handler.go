// Package http exposes the capture service as a single bearer protected endpoint
package http

import (
	"context"
	"crypto/subtle"
	stdhttp "net/http"
	"strings"

	"postlens/internal/adapters/capture"
	perr "postlens/internal/platform/errors"
	"postlens/internal/platform/logger"
	pnet "postlens/internal/platform/net"
	phttp "postlens/internal/platform/net/http"
	"postlens/internal/platform/net/http/bind"
)

// Capturer is the service the handler drives
type Capturer interface {
	Capture(ctx context.Context, req capture.Request) (capture.Response, error)
}

// Register mounts POST /capture. Other methods on the path answer 405
func Register(r phttp.Router, svc Capturer, token string) {
	h := &handler{svc: svc, token: strings.TrimSpace(token)}
	r.Handle("/capture", h)
}

type handler struct {
	svc   Capturer
	token string
}

// ServeHTTP handles one capture request
// swagger:route POST /capture Capture capturePost
// @Summary Render a post page in a headless browser
// @Tags Capture
// @Accept json
// @Produce json
// @Param payload body capture.Request true "Capture"
// @Success 200 {object} capture.Response "ok"
// @Failure 400 {object} phttp.Envelope "bad request"
// @Failure 401 {object} phttp.Envelope "bad token"
// @Failure 502 {object} phttp.Envelope "render failed"
// @Failure 504 {object} phttp.Envelope "render timed out"
// @Router /capture [post]
func (h *handler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	if r.Method != stdhttp.MethodPost {
		w.Header().Set("Allow", stdhttp.MethodPost)
		writeError(w, r, stdhttp.StatusMethodNotAllowed, perr.InvalidArgf("method %s not allowed", r.Method))
		return
	}
	if !h.authorized(r) {
		writeError(w, r, stdhttp.StatusUnauthorized, perr.Unauthorizedf("invalid capture token"))
		return
	}

	req, err := bind.ParseJSON[capture.Request](r)
	if err != nil {
		writeError(w, r, stdhttp.StatusBadRequest, err)
		return
	}

	resp, err := h.svc.Capture(r.Context(), req)
	if err != nil {
		status := stdhttp.StatusBadGateway
		if perr.IsCode(err, perr.ErrorCodeUnavailable) {
			status = stdhttp.StatusGatewayTimeout
		}
		logger.C(r.Context()).Warn().Err(err).Int("status", status).Str("url", req.URL).Msg("capture failed")
		writeError(w, r, status, err)
		return
	}
	pnet.WriteJSON(w, stdhttp.StatusOK, resp)
}

// authorized compares the bearer token in constant time; an unset token rejects everything
func (h *handler) authorized(r *stdhttp.Request) bool {
	got, ok := pnet.Bearer(r)
	if !ok || h.token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) == 1
}

// writeError renders err as an envelope but keeps the status chosen here,
// so a render timeout answers 504 rather than the generic 503
func writeError(w stdhttp.ResponseWriter, r *stdhttp.Request, status int, err error) {
	_, env := pnet.Failure(err, pnet.RequestID(r.Context()))
	env.StatusCode = status
	env.Status = stdhttp.StatusText(status)
	pnet.WriteJSON(w, status, env)
}
