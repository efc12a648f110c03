package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"morsel-sales/models"
	"morsel-sales/pipeline"
	"morsel-sales/utils"
)

// Handler serves the current pipeline snapshot over HTTP.
type Handler struct {
	pipeline *pipeline.Pipeline
	logger   *utils.Logger
	validate *validator.Validate
}

// NewHandler creates a Handler for p.
func NewHandler(p *pipeline.Pipeline, logger *utils.Logger) *Handler {
	v := validator.New()
	mustRegister(v, "region", func(fl validator.FieldLevel) bool {
		return p.ValidRegion(fl.Field().String())
	})
	return &Handler{pipeline: p, logger: logger, validate: v}
}

// mustRegister panics if fn cannot be registered under tag.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

// Health reports whether a snapshot is being served.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.pipeline.Snapshot() == nil {
		writeError(w, r, http.StatusServiceUnavailable, "dataset not built", nil)
		return
	}
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// Regions lists the region selector options.
func (h *Handler) Regions(w http.ResponseWriter, r *http.Request) {
	resp := RegionsResponse{
		Regions: append(h.pipeline.Regions(), "all"),
		Cutoff:  h.pipeline.Options().Cutoff.Format(models.DateLayout),
	}
	if snap := h.pipeline.Snapshot(); snap != nil {
		if first, last, ok := snap.Dataset.Span(); ok {
			resp.FirstDate = first.Format(models.DateLayout)
			resp.LastDate = last.Format(models.DateLayout)
		}
	}
	render.JSON(w, r, resp)
}

// View returns daily totals, the optional moving average and the comparison.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid query", err)
		return
	}

	snap := h.pipeline.Snapshot()
	view, err := h.pipeline.QuerySnapshot(snap, q)
	if err != nil {
		h.queryError(w, r, err)
		return
	}

	render.JSON(w, r, ViewResponse{
		SnapshotID:    snap.ID.String(),
		Region:        view.Region,
		Start:         formatDay(view.Start),
		End:           formatDay(view.End),
		Cutoff:        view.Cutoff.Format(models.DateLayout),
		Daily:         view.Daily,
		MovingAverage: view.MovingAverage,
		Comparison:    view.Comparison,
	})
}

// Records returns the canonical records matching the region and date range.
func (h *Handler) Records(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid query", err)
		return
	}

	snap := h.pipeline.Snapshot()
	if snap == nil {
		h.queryError(w, r, pipeline.ErrNotBuilt)
		return
	}

	records := snap.Dataset.FilterByRegion(q.Region).FilterByDateRange(q.Start, q.End).Records()
	render.JSON(w, r, RecordsResponse{
		SnapshotID: snap.ID.String(),
		Count:      len(records),
		Records:    records,
	})
}

// Snapshot describes the snapshot currently being served.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.pipeline.Snapshot()
	if snap == nil {
		h.queryError(w, r, pipeline.ErrNotBuilt)
		return
	}
	render.JSON(w, r, snapshotResponse(snap))
}

// Refresh rebuilds the dataset. A failed rebuild keeps the old snapshot.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.pipeline.Build(r.Context())
	if err != nil {
		h.logger.Warn("[api] refresh failed, keeping previous snapshot: %v", err)
		writeError(w, r, http.StatusUnprocessableEntity, "refresh failed", err)
		return
	}
	h.logger.Info("[api] refreshed to snapshot %s", snap.ID)
	render.JSON(w, r, snapshotResponse(snap))
}

func snapshotResponse(snap *pipeline.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		ID:      snap.ID.String(),
		BuiltAt: snap.BuiltAt,
		Records: snap.Dataset.Len(),
		Stats:   snap.Stats,
	}
}

// parseQuery validates the query string and converts it into a Query.
func (h *Handler) parseQuery(r *http.Request) (pipeline.Query, error) {
	values := r.URL.Query()
	params := ViewParams{
		Region: strings.TrimSpace(values.Get("region")),
		Start:  strings.TrimSpace(values.Get("start")),
		End:    strings.TrimSpace(values.Get("end")),
		MA:     strings.ToLower(strings.TrimSpace(values.Get("ma"))),
	}
	if err := h.validate.Struct(params); err != nil {
		return pipeline.Query{}, describeValidation(err)
	}

	q := pipeline.Query{
		Region:        params.Region,
		MovingAverage: params.MA == "true" || params.MA == "1" || params.MA == "on",
	}
	if params.Start != "" {
		t, _ := time.Parse(models.DateLayout, params.Start)
		q.Start = &t
	}
	if params.End != "" {
		t, _ := time.Parse(models.DateLayout, params.End)
		q.End = &t
	}
	return q, nil
}

func (h *Handler) queryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, pipeline.ErrNotBuilt):
		writeError(w, r, http.StatusServiceUnavailable, "dataset not built", err)
	case errors.Is(err, pipeline.ErrUnknownRegion):
		writeError(w, r, http.StatusBadRequest, "invalid query", err)
	default:
		h.logger.Error("[api] query failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "query failed", err)
	}
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: %q is not a valid %s", strings.ToLower(fe.Field()), fe.Value(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}
