// Package redistable stores table rows in Redis. Each partition is a hash of
// sort key to JSON body, indexed by a sorted set whose members are the sort
// keys at equal score so that range reads use lexicographic order.
package redistable

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/table"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "dm:table:"

type Table struct {
	rdb  redis.Cmdable
	name string
}

var _ table.Table = (*Table)(nil)

func New(rdb redis.Cmdable, name string) *Table {
	return &Table{rdb: rdb, name: name}
}

func (t *Table) Name() string { return t.name }

func (t *Table) rowsKey(pk string) string { return keyPrefix + t.name + ":" + pk + ":rows" }

func (t *Table) indexKey(pk string) string { return keyPrefix + t.name + ":" + pk + ":keys" }

func (t *Table) Get(ctx context.Context, key table.Key) (table.Item, error) {
	raw, err := t.rdb.HGet(ctx, t.rowsKey(key.PK), key.SK).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(key, raw)
}

func (t *Table) Put(ctx context.Context, item table.Item) error {
	if err := table.CheckItem(item); err != nil {
		return err
	}
	return t.TransactWrite(ctx, []table.WriteOp{table.PutOp(item)})
}

func (t *Table) Delete(ctx context.Context, key table.Key) error {
	return t.TransactWrite(ctx, []table.WriteOp{table.DeleteOp(key)})
}

func (t *Table) Query(ctx context.Context, pk, skPrefix string) ([]table.Item, error) {
	sks, err := t.rdb.ZRangeByLex(ctx, t.indexKey(pk), lexRange(skPrefix, "")).Result()
	if err != nil {
		return nil, err
	}
	return t.load(ctx, pk, sks)
}

func (t *Table) QueryPage(ctx context.Context, pk, skPrefix string, limit int, token string) (table.Page, error) {
	after, err := table.DecodeToken(token)
	if err != nil {
		return table.Page{}, err
	}
	limit = table.Limit(limit)

	by := lexRange(skPrefix, after.SK)
	by.Offset = 0
	by.Count = int64(limit + 1)
	sks, err := t.rdb.ZRangeByLex(ctx, t.indexKey(pk), by).Result()
	if err != nil {
		return table.Page{}, err
	}

	page := table.Page{}
	if len(sks) > limit {
		sks = sks[:limit]
		page.NextToken = table.EncodeToken(table.Key{PK: pk, SK: sks[len(sks)-1]})
	}
	page.Items, err = t.load(ctx, pk, sks)
	return page, err
}

// TransactWrite queues every op inside MULTI/EXEC.
func (t *Table) TransactWrite(ctx context.Context, ops []table.WriteOp) error {
	if err := table.CheckOps(ops); err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}

	bodies := make([]string, len(ops))
	for i, op := range ops {
		if op.Put == nil {
			continue
		}
		raw, err := json.Marshal(op.Put)
		if err != nil {
			return fmt.Errorf("marshal row %s: %w", op.Put.Key(), err)
		}
		bodies[i] = string(raw)
	}

	_, err := t.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, op := range ops {
			if op.Put != nil {
				k := op.Put.Key()
				pipe.HSet(ctx, t.rowsKey(k.PK), k.SK, bodies[i])
				pipe.ZAdd(ctx, t.indexKey(k.PK), redis.Z{Score: 0, Member: k.SK})
				continue
			}
			k := *op.Delete
			pipe.HDel(ctx, t.rowsKey(k.PK), k.SK)
			pipe.ZRem(ctx, t.indexKey(k.PK), k.SK)
		}
		return nil
	})
	return err
}

func (t *Table) load(ctx context.Context, pk string, sks []string) ([]table.Item, error) {
	if len(sks) == 0 {
		return []table.Item{}, nil
	}
	vals, err := t.rdb.HMGet(ctx, t.rowsKey(pk), sks...).Result()
	if err != nil {
		return nil, err
	}
	items := make([]table.Item, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// index entry without a body, left by a concurrent delete
			continue
		}
		item, err := decode(table.Key{PK: pk, SK: sks[i]}, raw)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// lexRange selects members starting with prefix, strictly after after when set.
func lexRange(prefix, after string) *redis.ZRangeBy {
	by := &redis.ZRangeBy{Min: "-", Max: "+"}
	if prefix != "" {
		by.Min = "[" + prefix
		by.Max = "(" + prefix + "\xff"
	}
	if after != "" && after >= prefix {
		by.Min = "(" + after
	}
	return by
}

func decode(key table.Key, raw string) (table.Item, error) {
	item := table.Item{}
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return nil, fmt.Errorf("unmarshal row %s: %w", key, err)
	}
	item[table.AttrPK] = key.PK
	item[table.AttrSK] = key.SK
	return item, nil
}
