package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/api"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/qrimage"
)

// maxBodyBytes bounds request bodies; envelopes are a few hundred bytes.
const maxBodyBytes = 1 << 20

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	h.mint(w, r, func(req *api.MintRequest) error {
		if req.ChainMap != nil || len(req.Chains) > 0 {
			return fmt.Errorf("%w: use /v1/mint/multichain for chain maps", common.ErrInvalidRecord)
		}
		return nil
	})
}

func (h *Handler) handleMintMultiChain(w http.ResponseWriter, r *http.Request) {
	h.mint(w, r, func(req *api.MintRequest) error {
		if req.ChainMap == nil && len(req.Chains) == 0 {
			return fmt.Errorf("%w: chain_map or chains is required", common.ErrInvalidRecord)
		}
		return nil
	})
}

func (h *Handler) handleMintWithImage(w http.ResponseWriter, r *http.Request) {
	h.mint(w, r, func(req *api.MintRequest) error {
		req.WithImage = true
		return nil
	})
}

func (h *Handler) mint(w http.ResponseWriter, r *http.Request, check func(*api.MintRequest) error) {
	var req api.MintRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := check(&req); err != nil {
		h.writeError(w, r, err)
		return
	}

	sreq, err := req.ToService()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.qr.Mint(r.Context(), sreq)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req api.VerifyRequest
	if !h.decode(w, r, &req) {
		return
	}

	rec, err := h.qr.Verify(r.Context(), req.Envelope)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.VerifyResponse{Record: rec})
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req api.ValidateRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.qr.ValidateScan(r.Context(), req.ToService())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleImage renders the posted envelope as image/png. The optional "size"
// query parameter sets the edge length in pixels.
func (h *Handler) handleImage(w http.ResponseWriter, r *http.Request) {
	var req api.VerifyRequest
	if !h.decode(w, r, &req) {
		return
	}

	size := 0
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > qrimage.MaxSizePx {
			h.writeError(w, r, fmt.Errorf("%w: size must be an integer within 1..%d", common.ErrInvalidRecord, qrimage.MaxSizePx))
			return
		}
		size = n
	}

	png, err := h.qr.RenderPNG(req.Envelope, size)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// decode reads exactly one JSON object. It writes a 400 and returns false on
// failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: fmt.Sprintf("invalid request payload: %v", err), Kind: "bad_request"})
		return false
	}
	if err := ensureSingleJSON(dec); err != nil {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Kind: "bad_request"})
		return false
	}
	return true
}

func ensureSingleJSON(dec *json.Decoder) error {
	if t, err := dec.Token(); err != io.EOF || t != nil {
		return fmt.Errorf("request body must only contain a single JSON object")
	}
	return nil
}

// StatusCode maps a codec error to an HTTP status.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, common.ErrMalformedEnvelope), errors.Is(err, common.ErrInvalidRecord):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrIntegrityFailure):
		return http.StatusForbidden
	case errors.Is(err, common.ErrDecryptionFailed), errors.Is(err, common.ErrCorruptRecord),
		errors.Is(err, common.ErrRenderFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrExpired):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusCode(err)
	resp := api.ErrorResponse{Error: err.Error(), Kind: common.Classify(err)}
	if code == http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		resp.Error = "internal error"
	}
	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
