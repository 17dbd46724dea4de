package dto

import (
	"time"

	"github.com/ispbill/backend/internal/domain/billing"
)

// PageParams carries the page and page_size query parameters
type PageParams struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Normalize fills in the defaults for missing values
func (p PageParams) Normalize() PageParams {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	return p
}

// AsOfQuery is the optional as_of query parameter, a date or an RFC 3339 instant
type AsOfQuery struct {
	AsOf string `form:"as_of"`
}

// Resolve parses AsOf. A bare date means the end of that day in loc, so
// the whole day is included. The zero time means "now".
func (q AsOfQuery) Resolve(loc *time.Location) (time.Time, error) {
	if q.AsOf == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, q.AsOf); err == nil {
		return t.In(loc), nil
	}
	d, err := time.ParseInLocation("2006-01-02", q.AsOf, loc)
	if err != nil {
		return time.Time{}, err
	}
	return d.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

// MonthQuery is the month query parameter of the monthly report
type MonthQuery struct {
	Month string `form:"month" binding:"required"`
}

// Period parses Month as YYYY-MM
func (q MonthQuery) Period() (billing.Period, error) {
	return billing.ParsePeriod(q.Month)
}

// IDRequest represents a request with an ID path parameter
type IDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// JobTriggerRequest is the optional body of a manual job trigger
type JobTriggerRequest struct {
	Period string `json:"period"`
}
