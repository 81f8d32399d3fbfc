package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/tether/pkg/types"
)

var _ types.Backend = (*Backend)(nil)

// Create inserts a new entity with a generated ID. Retries on the
// (unlikely) event of an ID collision.
func (b *Backend) Create(title, description string, labels map[string]string, assignee string) (*types.Entity, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", types.ErrValidation)
	}

	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := b.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id string
	for attempt := 0; ; attempt++ {
		id = newEntityID()
		_, err = tx.Exec(
			"INSERT INTO entities (entity_id, title, description, assignee, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			id, title, description, assignee, types.StatusOpen, now, now,
		)
		if err == nil {
			break
		}
		if !isUniqueViolation(err) || attempt >= 3 {
			return nil, fmt.Errorf("insert entity: %w", err)
		}
	}

	if err := replaceLabels(tx, id, labels); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	b.log.Debug("created entity", zap.String("id", id))
	return &types.Entity{
		ID:          id,
		Title:       title,
		Description: description,
		Labels:      labels,
		Assignee:    assignee,
		Status:      types.StatusOpen,
	}, nil
}

// Read returns the entity with the given ID.
func (b *Backend) Read(id string) (*types.Entity, error) {
	row := b.db.QueryRow(
		"SELECT entity_id, title, description, assignee, status FROM entities WHERE entity_id = ?", id,
	)
	e, err := hydrateEntity(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("entity %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading entity %s: %w", id, err)
	}
	if e.Labels, err = b.readLabels(id); err != nil {
		return nil, err
	}
	return e, nil
}

// Update applies a partial update. Omitted fields are left unchanged;
// Labels, when present, replaces the whole label set.
func (b *Backend) Update(id string, fields types.UpdateFields) (*types.Entity, error) {
	if fields.Status != nil && !types.ValidStatus(*fields.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", types.ErrValidation, *fields.Status)
	}
	if fields.Title != nil && strings.TrimSpace(*fields.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", types.ErrValidation)
	}

	var sets []string
	var args []any
	for col, val := range map[string]*string{
		"title":       fields.Title,
		"description": fields.Description,
		"assignee":    fields.Assignee,
		"status":      fields.Status,
	} {
		if val != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *val)
		}
	}

	tx, err := b.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if len(sets) > 0 {
		sets = append(sets, "updated_at = ?")
		args = append(args, time.Now().UTC().Format(time.RFC3339), id)
		res, err := tx.Exec(
			"UPDATE entities SET "+strings.Join(sets, ", ")+" WHERE entity_id = ?", args...,
		)
		if err != nil {
			return nil, fmt.Errorf("updating entity %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, fmt.Errorf("entity %s: %w", id, types.ErrNotFound)
		}
	} else if err := entityExistsTx(tx, id); err != nil {
		return nil, err
	}

	if fields.Labels != nil {
		if _, err := tx.Exec("DELETE FROM labels WHERE entity_id = ?", id); err != nil {
			return nil, fmt.Errorf("clearing labels of %s: %w", id, err)
		}
		if err := replaceLabels(tx, id, fields.Labels); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return b.Read(id)
}

// Delete removes the entity and every link touching it. A stale ID returns
// ErrNotFound.
func (b *Backend) Delete(id string) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM entities WHERE entity_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting entity %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entity %s: %w", id, types.ErrNotFound)
	}
	if _, err := tx.Exec("DELETE FROM links WHERE source_id = ? OR target_id = ?", id, id); err != nil {
		return fmt.Errorf("deleting links of %s: %w", id, err)
	}
	return tx.Commit()
}

// entityColumns maps filter/sort field names onto whitelisted columns.
// Anything else is treated as a label key for filtering and rejected for
// sorting.
var entityColumns = map[string]string{
	"id":       "entity_id",
	"title":    "title",
	"status":   "status",
	"assignee": "assignee",
}

// List streams matching entities straight off the result rows. The
// sequence is lazy and non-restartable; ranging stops the query early.
func (b *Backend) List(opts types.ListOptions) iter.Seq2[*types.Entity, error] {
	return func(yield func(*types.Entity, error) bool) {
		var conds []string
		var args []any
		for k, v := range opts.Filter {
			if col, ok := entityColumns[k]; ok {
				conds = append(conds, col+" = ?")
				args = append(args, v)
			} else {
				conds = append(conds, "EXISTS (SELECT 1 FROM labels l WHERE l.entity_id = entities.entity_id AND l.key = ? AND l.value = ?)")
				args = append(args, k, v)
			}
		}

		query := "SELECT entity_id, title, description, assignee, status FROM entities"
		if len(conds) > 0 {
			query += " WHERE " + strings.Join(conds, " AND ")
		}

		sortBy := opts.SortBy
		if sortBy == "" {
			sortBy = "id"
		}
		col, ok := entityColumns[sortBy]
		if !ok {
			yield(nil, fmt.Errorf("%w: cannot sort by %q", types.ErrValidation, sortBy))
			return
		}
		query += " ORDER BY " + col + " ASC"

		if opts.Limit > 0 {
			query += " LIMIT ?"
			args = append(args, opts.Limit)
		}

		rows, err := b.db.Query(query, args...)
		if err != nil {
			yield(nil, fmt.Errorf("listing entities: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			e, err := hydrateEntity(rows)
			if err != nil {
				yield(nil, fmt.Errorf("scanning entity: %w", err))
				return
			}
			if e.Labels, err = b.readLabels(e.ID); err != nil {
				yield(nil, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("listing entities: %w", err))
		}
	}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func hydrateEntity(s scanner) (*types.Entity, error) {
	var e types.Entity
	if err := s.Scan(&e.ID, &e.Title, &e.Description, &e.Assignee, &e.Status); err != nil {
		return nil, err
	}
	return &e, nil
}

func (b *Backend) readLabels(id string) (map[string]string, error) {
	rows, err := b.db.Query("SELECT key, value FROM labels WHERE entity_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("reading labels of %s: %w", id, err)
	}
	defer rows.Close()

	var labels map[string]string
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning label: %w", err)
		}
		if labels == nil {
			labels = make(map[string]string)
		}
		labels[k] = v
	}
	return labels, rows.Err()
}

func replaceLabels(tx *sql.Tx, id string, labels map[string]string) error {
	for k, v := range labels {
		if _, err := tx.Exec(
			"INSERT INTO labels (entity_id, key, value) VALUES (?, ?, ?)", id, k, v,
		); err != nil {
			return fmt.Errorf("inserting label %s of %s: %w", k, id, err)
		}
	}
	return nil
}

func entityExistsTx(tx *sql.Tx, id string) error {
	var one int
	err := tx.QueryRow("SELECT 1 FROM entities WHERE entity_id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("entity %s: %w", id, types.ErrNotFound)
	}
	return err
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
