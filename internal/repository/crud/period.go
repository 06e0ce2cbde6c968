package crud

import (
	"time"

	"github.com/uptrace/bun"
)

// Period is a half-open [From, To) time range; zero bounds are open.
type Period struct {
	From time.Time
	To   time.Time
}

// Filter restricts column to the period.
func (p Period) Filter(column string) Filter {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if !p.From.IsZero() {
			q = q.Where("? >= ?", bun.Ident(column), p.From.UTC())
		}
		if !p.To.IsZero() {
			q = q.Where("? < ?", bun.Ident(column), p.To.UTC())
		}
		return q
	}
}

// Chain applies filters in order, skipping nil entries.
func Chain(filters ...Filter) Filter {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		for _, f := range filters {
			if f != nil {
				q = f(q)
			}
		}
		return q
	}
}

// WhereEq matches rows whose column equals value.
func WhereEq(column string, value any) Filter {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("? = ?", bun.Ident(column), value)
	}
}
