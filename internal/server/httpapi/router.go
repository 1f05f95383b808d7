// Package httpapi serves the QR codec as a JSON HTTP API.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/codec"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/logging"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/record"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/server/services"
)

// QRService is the subset of services.QRService the handlers use.
type QRService interface {
	Mint(ctx context.Context, req services.MintRequest) (*services.MintResponse, error)
	Verify(ctx context.Context, envelope string) (*record.Record, error)
	ValidateScan(ctx context.Context, req services.ScanRequest) (*codec.ValidationResult, error)
	RenderPNG(envelope string, sizePx int) ([]byte, error)
}

// Handler holds the dependencies of every route.
type Handler struct {
	qr     QRService
	logger logging.Logger
}

func NewHandler(qr QRService, l logging.Logger) *Handler {
	return &Handler{qr: qr, logger: l.With("module", "http_api")}
}

// NewRouter mounts the API under /v1 plus /health and, when metrics is
// non-nil, /metrics.
func NewRouter(h *Handler, metrics http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware, loggingMiddleware(h.logger))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	if metrics != nil {
		r.Handle("/metrics", metrics).Methods(http.MethodGet)
	}

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/mint", h.handleMint).Methods(http.MethodPost)
	v1.HandleFunc("/mint/multichain", h.handleMintMultiChain).Methods(http.MethodPost)
	v1.HandleFunc("/mint/image", h.handleMintWithImage).Methods(http.MethodPost)
	v1.HandleFunc("/verify", h.handleVerify).Methods(http.MethodPost)
	v1.HandleFunc("/validate", h.handleValidate).Methods(http.MethodPost)
	v1.HandleFunc("/image", h.handleImage).Methods(http.MethodPost)

	return r
}
