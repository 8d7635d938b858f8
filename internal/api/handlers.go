package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"cellfade/adapters/stats/aggregate"
	"cellfade/app"
	"cellfade/domain/analysis"
	"cellfade/domain/battery"
	"cellfade/domain/core"
	"cellfade/internal/errors"
)

type analysisRequest struct {
	// Criteria defaults to the dashboard's initial selection when omitted
	Criteria   *analysis.FilterCriteria `json:"criteria"`
	Kind       string                   `json:"kind"`
	Checkpoint int                      `json:"checkpoint"`
	Seed       *int64                   `json:"seed"`
}

type regressionRequest struct {
	X    []float64 `json:"x"`
	Y    []float64 `json:"y"`
	Kind string    `json:"kind"`
}

type reportRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleTests(w http.ResponseWriter, r *http.Request) {
	tests, err := s.service.Tests(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tests": tests, "count": len(tests)})
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseTestID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	seed, err := s.seedParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	series, err := s.service.CycleSeries(r.Context(), id, seed)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	var body analysisRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, err)
		return
	}

	req := app.AnalysisRequest{
		Criteria:   analysis.DefaultCriteria(),
		Kind:       s.defaults.Kind,
		Checkpoint: s.defaults.Checkpoint,
		Seed:       s.defaults.Seed,
	}
	if body.Criteria != nil {
		req.Criteria = normalizeCriteria(*body.Criteria)
	}
	if body.Kind != "" {
		kind, err := analysis.ParseKind(body.Kind)
		if err != nil {
			s.writeError(w, err)
			return
		}
		req.Kind = kind
	}
	if body.Checkpoint != 0 {
		req.Checkpoint = analysis.Checkpoint(body.Checkpoint)
	}
	if body.Seed != nil {
		req.Seed = *body.Seed
	}

	report, err := s.service.Analyze(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := s.service.KPIs(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kpis)
}

func (s *Server) handleRetention(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "checkpoint")
	n, err := strconv.Atoi(raw)
	if err != nil {
		s.writeError(w, errors.InvalidArgument("checkpoint %q is not a number", raw))
		return
	}

	retention, err := s.service.Retention(r.Context(), analysis.Checkpoint(n), chemistryParams(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"checkpoint": n, "retention": retention})
}

func (s *Server) handleRegression(w http.ResponseWriter, r *http.Request) {
	var body regressionRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	kind, err := analysis.ParseKind(body.Kind)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.service.Fit(body.X, body.Y, kind)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var body reportRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	ids := make([]core.TestID, 0, len(body.IDs))
	for _, raw := range body.IDs {
		id, err := core.ParseTestID(raw)
		if err != nil {
			s.writeError(w, err)
			return
		}
		ids = append(ids, id)
	}

	summary, err := s.service.Report(r.Context(), ids)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	chem := battery.ParseChemistry(chi.URLParam(r, "chemistry"))
	field := aggregate.StatField(r.URL.Query().Get("field"))
	if field == "" {
		field = aggregate.FieldEfficiency
	}
	seed, err := s.seedParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	dist, err := s.service.Distribution(r.Context(), chem, field, seed)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dist)
}

// seedParam reads ?seed=, falling back to the configured default
func (s *Server) seedParam(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("seed")
	if raw == "" {
		return s.defaults.Seed, nil
	}
	seed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.InvalidArgument("seed %q is not an integer", raw)
	}
	return seed, nil
}

// chemistryParams accepts ?chemistry=NMC&chemistry=LFP as well as
// ?chemistry=NMC,LFP
func chemistryParams(r *http.Request) []battery.Chemistry {
	var out []battery.Chemistry
	for _, v := range r.URL.Query()["chemistry"] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, battery.ParseChemistry(part))
			}
		}
	}
	return out
}

func normalizeCriteria(c analysis.FilterCriteria) analysis.FilterCriteria {
	chems := make([]battery.Chemistry, 0, len(c.Chemistries))
	for _, ch := range c.Chemistries {
		chems = append(chems, battery.ParseChemistry(string(ch)))
	}
	c.Chemistries = chems
	return c
}
