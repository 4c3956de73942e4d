package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes a sort direction to ASC or DESC. Anything
// other than "asc" sorts descending.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when the whitelist allows it and
// defaultField otherwise.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.ToLower(strings.TrimSpace(sortField))
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// SaleSortFields contains allowed sort columns for sales
var SaleSortFields = map[string]bool{
	"sale_number":     true,
	"created_at":      true,
	"status":          true,
	"total_amount":    true,
	"reporting_total": true,
}

// StockMovementSortFields contains allowed sort columns for stock movements
var StockMovementSortFields = map[string]bool{
	"movement_number": true,
	"created_at":      true,
	"quantity_change": true,
}

// orderClause builds an ORDER BY expression from whitelisted input. Numbered
// documents tie-break on id so pages stay stable.
func orderClause(field string, allowed map[string]bool, defaultField, orderDir string) string {
	column := ValidateSortField(field, allowed, defaultField)
	dir := ValidateSortOrder(orderDir)
	if column == "id" {
		return "id " + dir
	}
	return column + " " + dir + ", id " + dir
}
