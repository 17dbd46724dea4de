package persistence

import (
	"errors"
	"strings"

	"github.com/ispbill/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
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

// CustomerSortFields contains allowed sort fields for customers
var CustomerSortFields = map[string]bool{
	"created_at":     true,
	"updated_at":     true,
	"name":           true,
	"package_tier":   true,
	"package_price":  true,
	"due_day":        true,
	"installed_at":   true,
	"credit_balance": true,
}

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]bool{
	"created_at": true,
	"period":     true,
	"issue_date": true,
	"due_date":   true,
	"amount":     true,
	"status":     true,
}

// PaymentSortFields contains allowed sort fields for payments
var PaymentSortFields = map[string]bool{
	"created_at":    true,
	"paid_at":       true,
	"paid_amount":   true,
	"total_payment": true,
	"method":        true,
}

// ExpenseSortFields contains allowed sort fields for expenses
var ExpenseSortFields = map[string]bool{
	"created_at": true,
	"name":       true,
	"category":   true,
	"amount":     true,
	"date":       true,
	"due_day":    true,
}

// OtherIncomeSortFields contains allowed sort fields for other income records
var OtherIncomeSortFields = map[string]bool{
	"created_at": true,
	"name":       true,
	"amount":     true,
	"date":       true,
}

// paginate counts the filtered rows, then applies ordering and the page window
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool, dest any) (int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, allowed, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir)).Order("id ASC")
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if err := query.Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// likePattern builds a case-insensitive LIKE pattern for use with LOWER(column)
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// saveVersioned inserts a new aggregate (version 1) or updates an existing one
// when the stored version is the one it was loaded with. Callers bump the
// version before saving.
func saveVersioned(tx *gorm.DB, model any, id any, version int) error {
	if version <= 1 {
		return tx.Create(model).Error
	}
	result := tx.Model(model).
		Where("id = ? AND version = ?", id, version-1).
		Select("*").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrStaleVersion
	}
	return nil
}
