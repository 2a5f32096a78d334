package http

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/report"
	"fintrack/internal/store"
)

const defaultMonthlySeries = 6

// categoriesResponse is the static catalog clients build their forms from.
type categoriesResponse struct {
	Categories       []core.Category     `json:"categories"`
	BudgetCategories []core.Category     `json:"budgetCategories"`
	Priorities       []core.PriorityInfo `json:"priorities"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(categoriesResponse{
		Categories:       core.Categories(),
		BudgetCategories: core.BudgetCategories(),
		Priorities:       core.Priorities(),
	}).Write(w)
}

func (s *Server) handleGetPeriod(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(s.store.Period()).Write(w)
}

func (s *Server) handleSetPeriod(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(msgInvalidRequest).Write(w)
		return
	}

	period := s.store.Period()
	fields := []struct {
		name string
		dst  *int
	}{{"year", &period.Year}, {"month", &period.Month}}
	for _, f := range fields {
		if !p.Has(f.name) {
			continue
		}
		n, err := strconv.Atoi(p.Get(f.name))
		if err != nil {
			ValidationResponse(core.NewValidationError(f.name, core.ErrInvalidPeriod), msgInvalidPeriod).Write(w)
			return
		}
		*f.dst = n
	}

	if err := s.store.SetPeriod(period); err != nil {
		ValidationResponse(err, msgInvalidPeriod).Write(w)
		return
	}
	NewResponse().JSON(s.store.Period()).Write(w)
}

func (s *Server) handleShiftPeriod(delta int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		NewResponse().JSON(s.store.ShiftPeriod(delta)).Write(w)
	}
}

// selectedPeriod is the query's period, or the store's selected period when
// the query names none.
func (s *Server) selectedPeriod(r *http.Request) (core.Period, error) {
	return ParsePeriodParams(r.URL.Query(), s.store.Period())
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	period, err := s.selectedPeriod(r)
	if err != nil {
		ValidationResponse(err, msgInvalidPeriod).Write(w)
		return
	}
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	NewResponse().JSON(s.dashboard(r.Context(), period, search)).Write(w)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(s.store.Budgets()).Write(w)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(msgInvalidRequest).Write(w)
		return
	}

	category := r.PathValue("category")
	amount, err := s.store.SetBudget(r.Context(), category, p.Get("amount"))
	if err != nil {
		ValidationResponse(err, msgInvalidBudget).Write(w)
		return
	}

	NewResponse().
		TriggerChanged(store.KeyBudgets).
		TriggerSuccessNotification(msgBudgetUpdated).
		JSON(map[string]any{"category": category, "amount": amount}).
		Write(w)
}

// budgetAnalytics is the budget page: the overall status plus one line per
// category.
type budgetAnalytics struct {
	Period     core.Period                    `json:"period"`
	Overview   analytics.BudgetStatus         `json:"overview"`
	Categories []analytics.CategoryBudgetLine `json:"categories"`
}

func (s *Server) handleBudgetAnalytics(w http.ResponseWriter, r *http.Request) {
	period, err := s.selectedPeriod(r)
	if err != nil {
		ValidationResponse(err, msgInvalidPeriod).Write(w)
		return
	}
	d := s.dashboard(r.Context(), period, "")

	NewResponse().JSON(budgetAnalytics{
		Period:     period,
		Overview:   d.Budget,
		Categories: d.CategoryBudgets,
	}).Write(w)
}

// handleMonthlyAnalytics returns income and expense totals for the most
// recent months that have data, oldest first.
func (s *Server) handleMonthlyAnalytics(w http.ResponseWriter, r *http.Request) {
	n := defaultMonthlySeries
	if v := strings.TrimSpace(r.URL.Query().Get("months")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 {
			BadRequestError("months must be a positive number").Write(w)
			return
		}
		n = m
	}

	NewResponse().JSON(analytics.MonthlySeries(s.store.Transactions(), n)).Write(w)
}

// handleReport renders the printable monthly report.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	period, err := s.selectedPeriod(r)
	if err != nil {
		ValidationResponse(err, msgInvalidPeriod).Write(w)
		return
	}

	d := s.dashboard(r.Context(), period, strings.TrimSpace(r.URL.Query().Get("search")))
	rep := report.Build(d, s.store.Settings().UseINR, s.now())

	var buf bytes.Buffer
	if err := s.renderer.HTML(&buf, rep); err != nil {
		InternalServerError("Failed to render report").Write(w)
		return
	}

	NewResponse().
		TriggerSuccessNotification(msgReportPrinted).
		Bytes("text/html; charset=utf-8", buf.Bytes()).
		Write(w)
}
