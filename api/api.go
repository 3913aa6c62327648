package api

import (
	"errors"
	"github.com/aleph-zero/lifo/service/harness"
	"github.com/aleph-zero/lifo/service/reverse"
	"github.com/aleph-zero/lifo/stack"
	"github.com/go-chi/render"
	"net/http"
)

/* *** Reverse API *** */

type ReverseHandler struct {
	service reverse.Service
}

func NewReverseHandler(svc reverse.Service) ReverseHandler {
	return ReverseHandler{service: svc}
}

func (h *ReverseHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	result, err := h.service.Reverse(r.Context(), q)
	if err != nil {
		switch {
		case errors.Is(err, reverse.Error{ErrorCode: reverse.NoInput}):
			render.Render(w, r, ErrInvalidRequest(err))
		case errors.Is(err, stack.ErrAllocation):
			render.Render(w, r, ErrInsufficientStorage(err))
		default:
			render.Render(w, r, ErrInternalServerError(err))
		}
		return
	}

	render.Status(r, http.StatusOK)
	render.Render(w, r, &ReverseResponse{result})
}

type ReverseResponse struct {
	*reverse.Result
}

func (q *ReverseResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

/* *** Harness API *** */

type HarnessHandler struct {
	service harness.Service
}

func NewHarnessHandler(svc harness.Service) HarnessHandler {
	return HarnessHandler{service: svc}
}

func (h *HarnessHandler) Run(w http.ResponseWriter, r *http.Request) {
	var scenarios []harness.Scenario
	processor := func(sc harness.Scenario) error {
		if err := sc.Validate(); err != nil {
			return err
		}
		scenarios = append(scenarios, sc)
		return nil
	}

	if err := ProcessScenarioStream(r, processor); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if len(scenarios) == 0 {
		render.Render(w, r, ErrInvalidRequest(errors.New("no scenarios in request body")))
		return
	}

	h.run(w, r, scenarios)
}

func (h *HarnessHandler) RunBuiltins(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, harness.Builtins())
}

func (h *HarnessHandler) run(w http.ResponseWriter, r *http.Request, scenarios []harness.Scenario) {
	reports, err := h.service.RunAll(r.Context(), scenarios)
	if err != nil {
		switch {
		case errors.Is(err, harness.Error{ErrorCode: harness.InvalidScenario}):
			render.Render(w, r, ErrInvalidRequest(err))
		case errors.Is(err, stack.ErrAllocation):
			render.Render(w, r, ErrInsufficientStorage(err))
		default:
			render.Render(w, r, ErrInternalServerError(err))
		}
		return
	}

	render.Status(r, http.StatusOK)
	render.RenderList(w, r, newReportListResponse(reports))
}

type ReportResponse struct {
	*harness.Report
}

func (rr *ReportResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func newReportListResponse(reports []*harness.Report) []render.Renderer {
	list := make([]render.Renderer, 0, len(reports))
	for _, report := range reports {
		list = append(list, &ReportResponse{report})
	}
	return list
}
