// Package sqltable stores table rows in a relational database through gorm.
package sqltable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/models"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/table"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Table is a logical table backed by the table_rows SQL table.
type Table struct {
	db   *gorm.DB
	name string
}

var _ table.Table = (*Table)(nil)

func New(db *gorm.DB, name string) *Table {
	return &Table{db: db, name: name}
}

func (t *Table) Name() string { return t.name }

func (t *Table) Get(ctx context.Context, key table.Key) (table.Item, error) {
	var row models.TableRow
	err := t.db.WithContext(ctx).
		Where("tbl = ? AND pk = ? AND sk = ?", t.name, key.PK, key.SK).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeRow(row)
}

func (t *Table) Put(ctx context.Context, item table.Item) error {
	if err := table.CheckItem(item); err != nil {
		return err
	}
	return t.upsert(t.db.WithContext(ctx), item)
}

func (t *Table) Delete(ctx context.Context, key table.Key) error {
	return t.delete(t.db.WithContext(ctx), key)
}

func (t *Table) Query(ctx context.Context, pk, skPrefix string) ([]table.Item, error) {
	var rows []models.TableRow
	err := t.prefixQuery(t.db.WithContext(ctx), pk, skPrefix).
		Order("sk ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return decodeRows(rows)
}

func (t *Table) QueryPage(ctx context.Context, pk, skPrefix string, limit int, token string) (table.Page, error) {
	after, err := table.DecodeToken(token)
	if err != nil {
		return table.Page{}, err
	}
	limit = table.Limit(limit)

	tx := t.prefixQuery(t.db.WithContext(ctx), pk, skPrefix)
	if after.SK != "" {
		tx = tx.Where("sk > ?", after.SK)
	}
	var rows []models.TableRow
	if err := tx.Order("sk ASC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return table.Page{}, err
	}

	page := table.Page{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		page.NextToken = table.EncodeToken(table.Key{PK: last.PK, SK: last.SK})
	}
	page.Items, err = decodeRows(rows)
	return page, err
}

func (t *Table) TransactWrite(ctx context.Context, ops []table.WriteOp) error {
	if err := table.CheckOps(ops); err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range ops {
			var err error
			if op.Put != nil {
				err = t.upsert(tx, op.Put)
			} else {
				err = t.delete(tx, *op.Delete)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (t *Table) upsert(tx *gorm.DB, item table.Item) error {
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal row %s: %w", item.Key(), err)
	}
	key := item.Key()
	row := models.TableRow{Tbl: t.name, PK: key.PK, SK: key.SK, Body: string(body), UpdatedAt: time.Now()}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tbl"}, {Name: "pk"}, {Name: "sk"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
	}).Create(&row).Error
}

func (t *Table) delete(tx *gorm.DB, key table.Key) error {
	return tx.Where("tbl = ? AND pk = ? AND sk = ?", t.name, key.PK, key.SK).
		Delete(&models.TableRow{}).Error
}

func (t *Table) prefixQuery(tx *gorm.DB, pk, skPrefix string) *gorm.DB {
	tx = tx.Model(&models.TableRow{}).Where("tbl = ? AND pk = ?", t.name, pk)
	if skPrefix != "" {
		// LIKE is case-insensitive on SQLite, so the prefix is compared exactly.
		tx = tx.Where("sk >= ? AND SUBSTR(sk, 1, ?) = ?", skPrefix, utf8.RuneCountInString(skPrefix), skPrefix)
	}
	return tx
}

func decodeRow(row models.TableRow) (table.Item, error) {
	item := table.Item{}
	if err := json.Unmarshal([]byte(row.Body), &item); err != nil {
		return nil, fmt.Errorf("unmarshal row %s/%s: %w", row.PK, row.SK, err)
	}
	item[table.AttrPK] = row.PK
	item[table.AttrSK] = row.SK
	return item, nil
}

func decodeRows(rows []models.TableRow) ([]table.Item, error) {
	items := make([]table.Item, 0, len(rows))
	for _, row := range rows {
		item, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
