package imports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/ledgersync/internal/config"
	"github.com/MrJamesThe3rd/ledgersync/internal/importer"
	"github.com/MrJamesThe3rd/ledgersync/internal/importer/source"
	"github.com/MrJamesThe3rd/ledgersync/internal/ledger"
	"github.com/MrJamesThe3rd/ledgersync/internal/pipeline"
)

//go:generate mockgen -source=handler.go -destination=handler_mock.go -package=imports
type Runner interface {
	Run(ctx context.Context, params pipeline.Params) (*pipeline.Result, error)
}

var ErrOutsideRoot = errors.New("path outside import root")

type Handler struct {
	runner Runner
	root   string
}

// NewHandler serves imports of local files under root. Object storage
// paths are passed through untouched.
func NewHandler(runner Runner, root string) *Handler {
	return &Handler{runner: runner, root: root}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
}

type createImportRequest struct {
	config.Import
	DryRun bool `json:"dryRun"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	maxDate, err := req.Cutoff()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	files, err := h.confine(req.Files)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.runner.Run(r.Context(), pipeline.Params{
		Destination: req.Destination,
		Auth:        req.APIAuth,
		MaxDate:     maxDate,
		DryRun:      req.DryRun,
		Files:       files,
	})
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	status := http.StatusCreated
	if req.DryRun {
		status = http.StatusOK
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(toResponse(res)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// confine resolves local paths against the import root, refusing absolute
// paths and any that climb out of it.
func (h *Handler) confine(files []importer.File) ([]importer.File, error) {
	out := make([]importer.File, len(files))

	for i, f := range files {
		if !strings.HasPrefix(f.Path, source.GCSScheme) {
			if !filepath.IsLocal(f.Path) {
				return nil, fmt.Errorf("%w: %q", ErrOutsideRoot, f.Path)
			}

			f.Path = filepath.Join(h.root, f.Path)
		}

		out[i] = f
	}

	return out, nil
}

func statusFor(err error) int {
	var apiErr *ledger.APIError

	switch {
	case errors.Is(err, importer.ErrUnknownFormat),
		errors.Is(err, pipeline.ErrUnknownDestination):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrUncategorized):
		return http.StatusUnprocessableEntity
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
