// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities should be free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: shared columns (BaseModel, AggregateModel)
// - billing.go: customers, invoices and payments
// - finance.go: expenses and other income
// - report.go: the stored financial summary
//
// Dates that legacy imports may lack (installation, issue, payment and income
// dates) are nullable columns and map to the zero time in the domain, where the
// aggregation counts and skips them.
package models
