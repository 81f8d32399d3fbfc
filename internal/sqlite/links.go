package sqlite

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/tether/pkg/types"
)

// AddLink persists the triple. Both endpoints must exist; an existing
// identical triple is reported as ErrDuplicateLink.
func (b *Backend) AddLink(source, target, typ string) error {
	for _, id := range []string{source, target} {
		var one int
		err := b.db.QueryRow("SELECT 1 FROM entities WHERE entity_id = ?", id).Scan(&one)
		if err != nil {
			if isNoRows(err) {
				return fmt.Errorf("entity %s: %w", id, types.ErrNotFound)
			}
			return fmt.Errorf("checking entity %s: %w", id, err)
		}
	}

	_, err := b.db.Exec(
		"INSERT INTO links (source_id, target_id, link_type, created_at) VALUES (?, ?, ?, ?)",
		source, target, typ, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s -> %s (%s): %w", source, target, typ, types.ErrDuplicateLink)
		}
		return fmt.Errorf("inserting link: %w", err)
	}

	b.log.Debug("added link",
		zap.String("source", source), zap.String("target", target), zap.String("type", typ))
	return nil
}

// RemoveLink deletes the triple, or reports ErrNotFound if it is not
// persisted.
func (b *Backend) RemoveLink(source, target, typ string) error {
	res, err := b.db.Exec(
		"DELETE FROM links WHERE source_id = ? AND target_id = ? AND link_type = ?",
		source, target, typ,
	)
	if err != nil {
		return fmt.Errorf("deleting link: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("link %s -> %s (%s): %w", source, target, typ, types.ErrNotFound)
	}
	return nil
}

// ListLinks returns every link in which the entity participates, in
// creation order, optionally filtered by type.
func (b *Backend) ListLinks(id, typ string) ([]types.Link, error) {
	var one int
	if err := b.db.QueryRow("SELECT 1 FROM entities WHERE entity_id = ?", id).Scan(&one); err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("entity %s: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("checking entity %s: %w", id, err)
	}

	query := "SELECT source_id, target_id, link_type FROM links WHERE (source_id = ? OR target_id = ?)"
	args := []any{id, id}
	if typ != "" {
		query += " AND link_type = ?"
		args = append(args, typ)
	}
	query += " ORDER BY created_at ASC, source_id ASC, target_id ASC"

	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing links of %s: %w", id, err)
	}
	defer rows.Close()

	var links []types.Link
	for rows.Next() {
		var l types.Link
		if err := rows.Scan(&l.SourceID, &l.TargetID, &l.Type); err != nil {
			return nil, fmt.Errorf("scanning link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}
