package http

import (
	"fmt"
	"net/http"

	"fintrack/internal/log"
	"fintrack/internal/store"
)

// handleExport offers expenses, tasks and budgets as a JSON download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	file := s.store.Export()
	body, err := file.JSON()
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Export encoding failed",
			log.FieldError, err.Error(), log.FieldOperation, log.OpExport)
		InternalServerError("Failed to export data").Write(w)
		return
	}

	NewResponse().
		Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name)).
		TriggerSuccessNotification(msgExported).
		Bytes("application/json", body).
		Write(w)
}

// handleImport replaces the collections present in the uploaded export.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r, maxImportBytes)
	if err != nil {
		BadRequestError(msgImportFailed).Write(w)
		return
	}

	res, err := s.store.Import(r.Context(), body)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Import rejected",
			log.FieldError, err.Error(), log.FieldOperation, log.OpImport, log.FieldErrorType, log.ErrorTypeFormat)
		ValidationResponse(err, msgImportFailed).Write(w)
		return
	}

	var keys []string
	if res.Expenses {
		keys = append(keys, store.KeyExpenses)
	}
	if res.Tasks {
		keys = append(keys, store.KeyTasks)
	}
	if res.Budgets {
		keys = append(keys, store.KeyBudgets)
	}

	NewResponse().
		TriggerChanged(keys...).
		TriggerSuccessNotification(msgImported).
		JSON(res).
		Write(w)
}
