package models

import (
	"net/url"
	"strings"
)

// TransactionFilters narrows a transaction query. Nil fields are not
// applied; present fields are ANDed together with the owner predicate.
// Date bounds are inclusive.
type TransactionFilters struct {
	Type       *TransactionType
	CategoryID *string
	StartDate  *Date
	EndDate    *Date
}

// ParseTransactionFilters reads the recognized query keys: type, categoryId,
// startDate and endDate. Empty values count as absent.
func ParseTransactionFilters(q url.Values) (TransactionFilters, error) {
	var f TransactionFilters

	if v := strings.TrimSpace(q.Get("type")); v != "" {
		t := TransactionType(v)
		f.Type = &t
	}
	if v := strings.TrimSpace(q.Get("categoryId")); v != "" {
		f.CategoryID = &v
	}
	if v := strings.TrimSpace(q.Get("startDate")); v != "" {
		d, err := ParseDate("startDate", v)
		if err != nil {
			return f, err
		}
		f.StartDate = &d
	}
	if v := strings.TrimSpace(q.Get("endDate")); v != "" {
		d, err := ParseDate("endDate", v)
		if err != nil {
			return f, err
		}
		f.EndDate = &d
	}

	return f, f.Validate()
}

func (f TransactionFilters) Validate() error {
	if f.Type != nil {
		if err := f.Type.Validate(); err != nil {
			return err
		}
	}
	if f.CategoryID != nil {
		if err := ValidateID("categoryId", *f.CategoryID); err != nil {
			return err
		}
	}
	return nil
}

// Match reports whether t satisfies every present filter. The owner
// predicate is not part of the filters and must be checked separately.
func (f TransactionFilters) Match(t *Transaction) bool {
	if f.Type != nil && t.Type != *f.Type {
		return false
	}
	if f.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *f.CategoryID) {
		return false
	}
	if f.StartDate != nil && t.Date.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && t.Date.After(*f.EndDate) {
		return false
	}
	return true
}
