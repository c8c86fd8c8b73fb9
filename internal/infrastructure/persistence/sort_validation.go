package persistence

import (
	"strings"
)

// Sort parameters arrive straight from query strings, so both the direction
// and the column name are validated against known-good values before they are
// interpolated into ORDER BY clauses. Each repository declares its own column
// whitelist next to the queries that use it.

// ValidateSortOrder normalizes a sort direction to ASC or DESC, defaulting to
// DESC for anything unrecognized.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it appears in allowedFields,
// otherwise defaultField. Empty input also falls back to the default.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields covers the audit columns every persisted entity shares.
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}
