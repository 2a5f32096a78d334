package http

import (
	"net/http"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	ts := s.store.Transactions()

	if hasPeriodParams(query) {
		period, err := ParsePeriodParams(query, s.store.Period())
		if err != nil {
			ValidationResponse(err, msgInvalidPeriod).Write(w)
			return
		}
		ts = analytics.FilterByMonth(ts, period)
	}
	ts = analytics.SortByDateDesc(analytics.Search(ts, query.Get("search")))

	NewResponse().JSON(ts).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(msgInvalidRequest).Write(w)
		return
	}

	in := p.TransactionInput()
	t, err := s.store.AddTransaction(r.Context(), in)
	if err != nil {
		fields := log.NewFields().
			WithTransaction(in.Description, in.Amount, in.Category).
			WithOperation(log.OpValidate).
			WithErrorType(log.ErrorTypeValidation).
			WithError(err)
		log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction rejected", fields.ToSlice()...)
		ValidationResponse(err, msgRequiredFields).Write(w)
		return
	}

	NewResponse().
		Status(http.StatusCreated).
		TriggerChanged(store.KeyExpenses).
		TriggerSuccessNotification(msgAdded(t.IsIncome)).
		JSON(t).
		Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := core.ID(r.PathValue("id"))
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(msgInvalidRequest).Write(w)
		return
	}

	t, ok, err := s.store.UpdateTransaction(r.Context(), id, p.TransactionInput())
	if err != nil {
		ValidationResponse(err, msgRequiredFields).Write(w)
		return
	}
	if !ok {
		NotFoundError(msgTransactionMissing).Write(w)
		return
	}

	NewResponse().
		TriggerChanged(store.KeyExpenses).
		TriggerSuccessNotification(msgExpenseUpdated).
		JSON(t).
		Write(w)
}

// handleDeleteTransaction answers 204 whether or not the id existed.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	res := NewResponse().Status(http.StatusNoContent)
	if s.store.DeleteTransaction(r.Context(), core.ID(r.PathValue("id"))) {
		res.TriggerChanged(store.KeyExpenses).TriggerInfoNotification(msgEntryDeleted)
	}
	res.Write(w)
}

// handleListTasks lists tasks matching search. status=pending or
// status=completed narrows and orders the list the way the task board does.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	tasks := analytics.SearchTasks(s.store.Tasks(), query.Get("search"))

	switch query.Get("status") {
	case "pending":
		tasks = analytics.SortPendingTasks(tasks)
	case "completed":
		tasks = analytics.SortCompletedTasks(tasks)
	case "":
	default:
		BadRequestError("status must be pending or completed").Write(w)
		return
	}

	NewResponse().JSON(tasks).Write(w)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(msgInvalidRequest).Write(w)
		return
	}

	t, err := s.store.AddTask(r.Context(), p.TaskInput())
	if err != nil {
		ValidationResponse(err, msgRequiredTaskFields).Write(w)
		return
	}

	NewResponse().
		Status(http.StatusCreated).
		TriggerChanged(store.KeyTasks).
		TriggerSuccessNotification(msgTaskAdded).
		JSON(t).
		Write(w)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id := core.ID(r.PathValue("id"))
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(msgInvalidRequest).Write(w)
		return
	}

	t, ok, err := s.store.UpdateTask(r.Context(), id, p.TaskInput())
	if err != nil {
		ValidationResponse(err, msgRequiredTaskFields).Write(w)
		return
	}
	if !ok {
		NotFoundError(msgTaskMissing).Write(w)
		return
	}

	NewResponse().
		TriggerChanged(store.KeyTasks).
		TriggerSuccessNotification(msgTaskUpdated).
		JSON(t).
		Write(w)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	res := NewResponse().Status(http.StatusNoContent)
	if s.store.DeleteTask(r.Context(), core.ID(r.PathValue("id"))) {
		res.TriggerChanged(store.KeyTasks).TriggerInfoNotification(msgTaskDeleted)
	}
	res.Write(w)
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	t, ok := s.store.ToggleTask(r.Context(), core.ID(r.PathValue("id")))
	if !ok {
		NotFoundError(msgTaskMissing).Write(w)
		return
	}

	NewResponse().
		TriggerChanged(store.KeyTasks).
		TriggerSuccessNotification(msgTaskToggled(t.Completed)).
		JSON(t).
		Write(w)
}
