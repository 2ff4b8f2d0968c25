package httpadapter

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/metar-etl/internal/domain"
	"github.com/couchcryptid/metar-etl/internal/metar"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gorilla/mux"
)

// maxDecodeBody caps a /decode request body at the longest line the decoder accepts.
const maxDecodeBody = metar.MaxLineLength

// Handler serves the decode and archive endpoints.
type Handler struct {
	decoder *metar.Decoder
	archive domain.ObservationArchive
}

// NewHandler creates a Handler. A nil archive disables /stations/{icao}/latest.
func NewHandler(decoder *metar.Decoder, archive domain.ObservationArchive) *Handler {
	return &Handler{decoder: decoder, archive: archive}
}

type decodeResult struct {
	metar.Result
	Encoded string `json:"encoded"`
}

type decodeResponse struct {
	Reference time.Time      `json:"reference"`
	Results   []decodeResult `json:"results"`
}

// Decode decodes a body of newline-separated reports. Query parameters:
// "ref" (RFC 3339) pins the reference instant, "strict" rejects trailing text.
func (h *Handler) Decode(w http.ResponseWriter, r *http.Request) {
	dec, err := h.requestDecoder(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_PARAMETER", err.Error(), nil)
		return
	}

	results, err := dec.DecodeAll(http.MaxBytesReader(w, r.Body, maxDecodeBody))
	if err != nil {
		var lineErr *metar.LineError
		if !errors.As(err, &lineErr) {
			writeError(w, r, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		loggerFrom(r).Debug("decode rejected", "line", lineErr.Line, "error", lineErr.Err)
		writeError(w, r, http.StatusUnprocessableEntity, "DECODE_FAILED", err.Error(), decodeErrorDetail(lineErr))
		return
	}

	resp := decodeResponse{Reference: dec.Reference(), Results: make([]decodeResult, 0, len(results))}
	for _, res := range results {
		resp.Results = append(resp.Results, decodeResult{Result: res, Encoded: res.Report.String()})
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

// requestDecoder returns h.decoder, or a decoder with the request's
// overrides applied. The reference is pinned for the whole body.
func (h *Handler) requestDecoder(r *http.Request) (*metar.Decoder, error) {
	q := r.URL.Query()
	strict := h.decoder.Strict()
	if s := q.Get("strict"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, errors.New("strict must be a boolean")
		}
		strict = v
	}
	ref := h.decoder.Reference()
	if s := q.Get("ref"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, errors.New("ref must be an RFC 3339 timestamp")
		}
		ref = t.UTC()
	}
	return metar.NewDecoder(metar.WithReferenceTime(ref), metar.WithStrict(strict)), nil
}

func decodeErrorDetail(le *metar.LineError) map[string]any {
	detail := map[string]any{"line": le.Line, "text": le.Text}
	var pe *metar.ParseError
	if errors.As(le.Err, &pe) {
		detail["field"] = pe.Field
		detail["offset"] = pe.Offset
		detail["expected"] = pe.Expected
		detail["found"] = pe.Found
		detail["kind"] = pe.Kind.Error()
	}
	return detail
}

// Latest returns the most recent archived observation for a station.
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	icao := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["icao"]))
	if !validICAO(icao) {
		writeError(w, r, http.StatusBadRequest, "INVALID_STATION", "station must be 4 letters or digits", nil)
		return
	}

	obs, err := h.archive.Latest(r.Context(), icao)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "no observation archived for "+icao, nil)
		return
	}
	if err != nil {
		loggerFrom(r).Error("archive lookup failed", "station", icao, "error", err)
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "archive lookup failed", nil)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, obs)
}

func validICAO(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, c := range s {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, detail map[string]any) {
	body := map[string]any{
		"code":      code,
		"message":   message,
		"requestId": correlationIDFrom(r),
	}
	if detail != nil {
		body["detail"] = detail
	}
	sharedobs.WriteJSON(w, status, map[string]any{"error": body})
}
