package http

import (
	"strings"
)

// User-visible notification text.
const (
	msgRequiredFields     = "Please fill in all required fields"
	msgRequiredTaskFields = "Please fill in all required task fields"
	msgInvalidRequest     = "Invalid request format"
	msgExpenseUpdated     = "Expense updated successfully!"
	msgEntryDeleted       = "Entry deleted successfully!"
	msgTransactionMissing = "Transaction not found"
	msgTaskAdded          = "Task added successfully!"
	msgTaskUpdated        = "Task updated successfully!"
	msgTaskDeleted        = "Task deleted successfully!"
	msgTaskMissing        = "Task not found"
	msgBudgetUpdated      = "Budget updated successfully!"
	msgInvalidBudget      = "Please enter a valid budget amount"
	msgExported           = "Data exported successfully!"
	msgImported           = "Data imported successfully!"
	msgImportFailed       = "Failed to import data: Invalid format"
	msgReportPrinted      = "Expense report printed successfully!"
	msgLoggedIn           = "Successfully logged in!"
	msgRegistered         = "Account created successfully!"
	msgLoggedOut          = "Successfully logged out"
	msgProfileUpdated     = "Profile updated successfully!"
	msgInvalidPeriod      = "Invalid period"
	msgRateLimited        = "Rate limit exceeded. Please try again later."
)

func msgAdded(isIncome bool) string {
	if isIncome {
		return "Income added successfully!"
	}
	return "Expense added successfully!"
}

func msgTaskToggled(completed bool) string {
	if completed {
		return "Task marked as completed!"
	}
	return "Task marked as pending!"
}

func msgCurrency(useINR bool) string {
	if useINR {
		return "Currency changed to Indian Rupees (₹)"
	}
	return "Currency changed to US Dollars ($)"
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
