package webui

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mzyy94/qlabel/internal/config"
	"github.com/mzyy94/qlabel/internal/printer"
	"github.com/mzyy94/qlabel/internal/raster"
)

//go:embed static
var staticFS embed.FS

// DeviceInfo identifies the connected printer to API clients.
type DeviceInfo struct {
	Model   string `json:"model"`
	Serial  string `json:"serial"`
	Product string `json:"product"`
	UUID    string `json:"uuid"`
}

type handler struct {
	printer  *printer.Printer
	settings *config.Store
	info     DeviceInfo
}

// NewHandler creates an HTTP handler for the web UI and its JSON API.
func NewHandler(p *printer.Printer, store *config.Store, info DeviceInfo) http.Handler {
	h := &handler{printer: p, settings: store, info: info}
	mux := http.NewServeMux()
	staticContent, _ := fs.Sub(staticFS, "static")
	mux.HandleFunc("GET /api/status", h.handleStatus)
	mux.HandleFunc("GET /api/settings", h.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", h.handlePutSettings)
	mux.HandleFunc("POST /api/print", h.handlePrint)
	mux.HandleFunc("POST /api/cancel", h.handleCancel)
	mux.Handle("GET /", http.FileServer(http.FS(staticContent)))
	return mux
}

type statusResponse struct {
	Online    bool                   `json:"online"`
	State     string                 `json:"state"`
	Error     string                 `json:"error,omitempty"`
	Media     *mediaStatus           `json:"media,omitempty"`
	Device    DeviceInfo             `json:"device"`
	Job       printer.PrintJobStatus `json:"job"`
	UpdatedAt string                 `json:"updatedAt"`
}

type mediaStatus struct {
	Name       string `json:"name"`
	WidthMM    int    `json:"widthMM"`
	LengthMM   int    `json:"lengthMM,omitempty"`
	DieCut     bool   `json:"dieCut"`
	RedCapable bool   `json:"redCapable"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (h *handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Device:    h.info,
		Job:       h.printer.Job(),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	st, err := h.printer.Status()
	if err != nil {
		resp.State = "unreachable"
		resp.Error = err.Error()
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}

	resp.Online = true
	resp.State = st.Phase.String()
	if !st.Error.IsClear() {
		resp.Error = st.Error.String()
	}
	if st.Media != raster.MediaUnknown {
		spec := st.Media.Spec()
		resp.Media = &mediaStatus{
			Name:       st.Media.Name(),
			WidthMM:    spec.WidthMM,
			LengthMM:   spec.LengthMM,
			DieCut:     st.Media.IsDieCut(),
			RedCapable: st.Media.RedCapable(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Settings API ---

func (h *handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.Get())
}

func (h *handler) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var s config.Settings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	cur := h.printer.Config()
	if _, err := s.PrintConfig(cur.Model, cur.Serial); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	if err := h.settings.Update(s); err != nil {
		slog.Warn("settings save failed", "err", err)
		http.Error(w, "failed to save settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// --- Print API ---

func (h *handler) handlePrint(w http.ResponseWriter, r *http.Request) {
	if h.printer.Job().Printing {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "a print job is already running"})
		return
	}

	img, err := decodePrintBody(r)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	s := h.settings.Get()
	cur := h.printer.Config()
	cfg, err := s.PrintConfig(cur.Model, cur.Serial)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	if err := h.printer.Reconfigure(cfg); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	h.printer.SetArchiveDir(s.ArchiveDir)

	if s.TwoColor {
		err = h.printer.PrintImageTwoColor(img)
	} else {
		err = h.printer.PrintImage(img, s.Threshold)
	}
	if err != nil {
		slog.Warn("print failed", "err", err)
		writeJSON(w, printErrorCode(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, h.printer.Job())
}

func (h *handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := h.printer.Cancel(); err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodePrintBody extracts the label image from a PNG/JPEG request body or
// a multipart "file" field.
func decodePrintBody(r *http.Request) (image.Image, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, fmt.Errorf("parse multipart form: %w", err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, errors.New("multipart form has no file field")
		}
		defer file.Close()
		img, _, err := image.Decode(file)
		if err != nil {
			return nil, fmt.Errorf("decode image: %w", err)
		}
		return img, nil
	}

	img, _, err := image.Decode(r.Body)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// printErrorCode maps print failures onto HTTP status codes: bad requests
// are the client's fault, device faults and timeouts are the printer's.
func printErrorCode(err error) int {
	var mismatch *raster.MediaMismatchError
	var fault *raster.FaultError
	switch {
	case errors.Is(err, raster.ErrInvalidConfig):
		return http.StatusUnprocessableEntity
	case errors.As(err, &mismatch), errors.Is(err, raster.ErrNoMediaInstalled):
		return http.StatusConflict
	case errors.As(err, &fault):
		return http.StatusBadGateway
	case errors.Is(err, raster.ErrReadStatusTimeout), errors.Is(err, raster.ErrPrintTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
