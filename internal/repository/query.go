package repository

import (
	"fmt"
	"strings"

	"github.com/Dan9191/finance-service/internal/models"
)

const transactionSelect = `
		SELECT t.id, t.description, t.amount, t.type, t.date, t.notes, t.category_id, t.user_id,
		       t.created_at, t.updated_at, c.id, c.name, c.description
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id`

// transactionOrder puts the most recent date first. Same-date rows are
// ordered newest insertion first, then by id so the order is total.
const transactionOrder = " ORDER BY t.date DESC, t.created_at DESC, t.id ASC"

// buildTransactionQuery composes the owner predicate with the present
// filters. The owner clause is always $1.
func buildTransactionQuery(userID string, f models.TransactionFilters) (string, []any) {
	var b strings.Builder
	b.WriteString(transactionSelect)
	b.WriteString(" WHERE t.user_id = $1")
	args := []any{userID}

	and := func(clause string, value any) {
		args = append(args, value)
		fmt.Fprintf(&b, " AND %s $%d", clause, len(args))
	}
	if f.Type != nil {
		and("t.type =", string(*f.Type))
	}
	if f.CategoryID != nil {
		and("t.category_id =", *f.CategoryID)
	}
	if f.StartDate != nil {
		and("t.date >=", f.StartDate.String())
	}
	if f.EndDate != nil {
		and("t.date <=", f.EndDate.String())
	}

	b.WriteString(transactionOrder)
	return b.String(), args
}
