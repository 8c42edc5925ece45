// Package table is the key-value storage contract shared by the single-table
// stores: rows are addressed by a partition key and an ordered sort key.
package table

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	// AttrPK and AttrSK are the key attribute names carried by every row.
	AttrPK = "PK"
	AttrSK = "SK"

	// MaxTransactItems is the largest write set TransactWrite accepts.
	MaxTransactItems = 100

	// DefaultPageSize is used by QueryPage when the caller passes no limit.
	DefaultPageSize = 200
)

var (
	ErrTransactionTooLarge = fmt.Errorf("transaction exceeds %d items", MaxTransactItems)
	ErrInvalidToken        = errors.New("invalid continuation token")
	ErrMissingKey          = errors.New("item is missing PK or SK")
)

// Item is one stored row: a flat document holding PK and SK plus its attributes.
type Item map[string]any

// Key returns the item's primary key.
func (it Item) Key() Key {
	return Key{PK: it.String(AttrPK), SK: it.String(AttrSK)}
}

// String returns the string attribute name, or "" when absent or not a string.
func (it Item) String(name string) string {
	s, _ := it[name].(string)
	return s
}

// Bool returns the boolean attribute name, or false.
func (it Item) Bool(name string) bool {
	b, _ := it[name].(bool)
	return b
}

// Clone returns a shallow copy of the item.
func (it Item) Clone() Item {
	out := make(Item, len(it))
	for k, v := range it {
		out[k] = v
	}
	return out
}

// Key addresses a single row.
type Key struct {
	PK string `json:"pk"`
	SK string `json:"sk"`
}

func (k Key) String() string { return k.PK + "/" + k.SK }

// WriteOp is one element of a transactional write. Exactly one of Put or
// Delete is set.
type WriteOp struct {
	Put    Item
	Delete *Key
}

func PutOp(item Item) WriteOp { return WriteOp{Put: item} }

func DeleteOp(k Key) WriteOp { return WriteOp{Delete: &k} }

// Page is one page of a query.
type Page struct {
	Items     []Item
	NextToken string
}

// Table is implemented by every storage backend.
type Table interface {
	Name() string
	// Get returns (nil, nil) when the row does not exist.
	Get(ctx context.Context, key Key) (Item, error)
	Put(ctx context.Context, item Item) error
	Delete(ctx context.Context, key Key) error
	// Query returns every row of pk whose SK starts with skPrefix, in SK order.
	Query(ctx context.Context, pk, skPrefix string) ([]Item, error)
	// QueryPage returns up to limit rows after token. An empty NextToken
	// means there are no more rows.
	QueryPage(ctx context.Context, pk, skPrefix string, limit int, token string) (Page, error)
	// TransactWrite applies every op or none of them.
	TransactWrite(ctx context.Context, ops []WriteOp) error
}

// CheckOps rejects write sets a backend must not attempt.
func CheckOps(ops []WriteOp) error {
	if len(ops) > MaxTransactItems {
		return ErrTransactionTooLarge
	}
	for i, op := range ops {
		switch {
		case op.Put != nil && op.Delete != nil:
			return fmt.Errorf("write op %d sets both put and delete", i)
		case op.Put != nil:
			if err := CheckItem(op.Put); err != nil {
				return fmt.Errorf("write op %d: %w", i, err)
			}
		case op.Delete != nil:
			if op.Delete.PK == "" || op.Delete.SK == "" {
				return fmt.Errorf("write op %d: %w", i, ErrMissingKey)
			}
		default:
			return fmt.Errorf("write op %d is empty", i)
		}
	}
	return nil
}

// CheckItem ensures the item carries both key attributes.
func CheckItem(item Item) error {
	k := item.Key()
	if k.PK == "" || k.SK == "" {
		return ErrMissingKey
	}
	return nil
}

// EncodeToken turns the last key of a page into an opaque continuation token.
func EncodeToken(k Key) string {
	raw, _ := json.Marshal(k)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeToken reverses EncodeToken. The empty token decodes to the zero key.
func DecodeToken(token string) (Key, error) {
	var k Key
	if token == "" {
		return k, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return k, ErrInvalidToken
	}
	if err := json.Unmarshal(raw, &k); err != nil || k.PK == "" || k.SK == "" {
		return Key{}, ErrInvalidToken
	}
	return k, nil
}

// Encode renders v as an item stored under key.
func Encode(v any, key Key) (Item, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode item: %w", err)
	}
	item := Item{}
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("encode item: %w", err)
	}
	item[AttrPK] = key.PK
	item[AttrSK] = key.SK
	return item, nil
}

// Decode fills v from the item's attributes.
func Decode(item Item, v any) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("decode item %s: %w", item.Key(), err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode item %s: %w", item.Key(), err)
	}
	return nil
}

// HasPrefix reports whether the row key matches pk and skPrefix.
func HasPrefix(k Key, pk, skPrefix string) bool {
	return k.PK == pk && strings.HasPrefix(k.SK, skPrefix)
}

// Limit normalises a requested page size.
func Limit(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	return n
}
