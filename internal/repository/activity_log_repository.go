package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/travel-backoffice/internal/model"
)

// ActivityLogRepo appends and lists activity entries.  Entries are never
// updated; they are removed only together with the entity they reference.
type ActivityLogRepo struct {
	db *sql.DB
}

// NewActivityLogRepo returns a new ActivityLogRepo bound to the given database.
func NewActivityLogRepo(db *sql.DB) *ActivityLogRepo { return &ActivityLogRepo{db: db} }

// ActivityQuery filters the activity list.
type ActivityQuery struct {
	ReferenceType string
	ReferenceID   uint64
	Search        string
	Limit         int
}

// Append stores e, stamping its date when unset.
func (r *ActivityLogRepo) Append(ctx context.Context, e *model.ActivityLog) error {
	if e.Date.IsZero() {
		e.Date = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO activity_logs (reference_id, reference_type, date, description, actor) VALUES (?,?,?,?,?)`,
		e.ReferenceID, e.ReferenceType, e.Date, e.Description, e.Actor)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// List returns entries matching q, newest first.
func (r *ActivityLogRepo) List(ctx context.Context, q ActivityQuery) ([]model.ActivityLog, error) {
	where := []string{}
	args := []any{}
	if q.ReferenceType != "" {
		where = append(where, "reference_type = ?")
		args = append(args, q.ReferenceType)
	}
	if q.ReferenceID != 0 {
		where = append(where, "reference_id = ?")
		args = append(args, q.ReferenceID)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		where = append(where, "(LOWER(description) LIKE ? OR LOWER(actor) LIKE ?)")
		args = append(args, like, like)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	limit := q.Limit
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, reference_id, reference_type, date, description, actor
         FROM activity_logs WHERE `+cond+` ORDER BY date DESC, id DESC LIMIT ?`,
		append(args, limit)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ActivityLog{}
	for rows.Next() {
		var e model.ActivityLog
		if err := rows.Scan(&e.ID, &e.ReferenceID, &e.ReferenceType, &e.Date, &e.Description, &e.Actor); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
