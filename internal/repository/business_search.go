package repository

import (
	"context"
	"strings"

	"github.com/skiplinehq/skipline/internal/model"
)

// BusinessSearchQuery defines filters & pagination for browsing the
// business directory.
type BusinessSearchQuery struct {
	Search   string
	Category string
	Page     int
	PageSize int
}

// SearchActive lists active businesses matching the filters, ordered
// by rating then name. It returns the page of rows plus the total
// match count for pagination.
func (r *BusinessRepo) SearchActive(ctx context.Context, q BusinessSearchQuery) ([]*model.Business, int64, error) {
	where := []string{"is_active = true"}
	args := []any{}

	if q.Category != "" {
		args = append(args, q.Category)
		where = append(where, "category = "+placeholder(len(args)))
	}
	if q.Search != "" {
		args = append(args, "%"+strings.TrimSpace(q.Search)+"%")
		p := placeholder(len(args))
		where = append(where, "(name ILIKE "+p+" OR description ILIKE "+p+" OR address ILIKE "+p+")")
	}
	cond := strings.Join(where, " AND ")

	var total int64
	countSQL := `SELECT COUNT(*) FROM businesses WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := `SELECT ` + businessColumns + `
		FROM businesses
		WHERE ` + cond + `
		ORDER BY average_rating DESC, name ASC
		LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*model.Business, 0, limit)
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
