// Package pgstore implements the gateway record store on Postgres through gorm.
package pgstore

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kidsgo-app/kidsgo-backend/internal/gateway"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// classify narrows a gorm/driver error into the gateway taxonomy. Requires
// gorm.Config.TranslateError so unique violations surface as ErrDuplicatedKey;
// policy (RLS) denials are matched on SQLSTATE 42501 since gorm has no typed
// error for them.
func classify(err error, msg string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return gateway.E(gateway.KindNotFound, msg, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return gateway.E(gateway.KindConflict, msg, err)
	case strings.Contains(err.Error(), "42501"),
		strings.Contains(err.Error(), "permission denied"),
		strings.Contains(err.Error(), "row-level security"):
		return gateway.E(gateway.KindPermissionDenied, msg, err)
	default:
		return gateway.E(gateway.KindUnavailable, msg, err)
	}
}

func (s *Store) Select(ctx context.Context, table string, filter gateway.Filter) ([]gateway.Row, error) {
	var rows []map[string]any
	q := s.db.WithContext(ctx).Table(table)
	if len(filter) > 0 {
		q = q.Where(map[string]any(filter))
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, classify(err, "select "+table)
	}
	out := make([]gateway.Row, len(rows))
	for i, r := range rows {
		out[i] = gateway.Row(r)
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, table string, row gateway.Row) (gateway.Row, error) {
	data := map[string]any(row)
	if err := s.db.WithContext(ctx).Table(table).Create(data).Error; err != nil {
		return nil, classify(err, "insert "+table)
	}
	return gateway.Row(data), nil
}

func (s *Store) Update(ctx context.Context, table string, patch gateway.Row, filter gateway.Filter) (gateway.Row, error) {
	q := s.db.WithContext(ctx).Table(table).
		Where(map[string]any(filter)).
		Updates(map[string]any(patch))
	if q.Error != nil {
		return nil, classify(q.Error, "update "+table)
	}
	if q.RowsAffected == 0 {
		return nil, gateway.E(gateway.KindNotFound, "update "+table+": no matching row", nil)
	}

	// Read back by the filter columns the patch left untouched; a patched
	// column no longer matches its pre-update value.
	key := readbackFilter(patch, filter)
	if len(key) == 0 {
		out := gateway.Row{}
		for k, v := range filter {
			out[k] = v
		}
		for k, v := range patch {
			out[k] = v
		}
		return out, nil
	}
	rows, err := s.Select(ctx, table, key)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gateway.E(gateway.KindNotFound, "update "+table+": row missing after update", nil)
	}
	return rows[0], nil
}

// readbackFilter drops filter columns that the patch rewrote, keeping only
// the ones still valid for locating the row after the update.
func readbackFilter(patch gateway.Row, filter gateway.Filter) gateway.Filter {
	key := gateway.Filter{}
	for k, v := range filter {
		if _, patched := patch[k]; !patched {
			key[k] = v
		}
	}
	return key
}

func (s *Store) Upsert(ctx context.Context, table string, row gateway.Row) (gateway.Row, error) {
	data := map[string]any(row)
	err := s.db.WithContext(ctx).Table(table).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(data).Error
	if err != nil {
		return nil, classify(err, "upsert "+table)
	}
	return gateway.Row(data), nil
}

func (s *Store) Delete(ctx context.Context, table string, filter gateway.Filter) error {
	if len(filter) == 0 {
		return gateway.E(gateway.KindPermissionDenied, "delete "+table+": refusing unfiltered delete", nil)
	}
	if err := s.db.WithContext(ctx).Table(table).Where(map[string]any(filter)).Delete(nil).Error; err != nil {
		return classify(err, "delete "+table)
	}
	return nil
}
