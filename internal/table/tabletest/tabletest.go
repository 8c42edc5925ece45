// Package tabletest provides test stores and a behaviour suite every
// table.Table implementation must pass.
package tabletest

import (
	"context"
	"fmt"
	"testing"

	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/database"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/table"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/table/sqltable"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenSQLite returns a migrated in-memory database closed at test cleanup.
func OpenSQLite(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Open(sqlite.Open(":memory:"), logger.Silent)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

// NewSQL returns a SQLite backed table.
func NewSQL(t testing.TB, name string) table.Table {
	return sqltable.New(OpenSQLite(t), name)
}

func item(pk, sk string, attrs ...any) table.Item {
	it := table.Item{table.AttrPK: pk, table.AttrSK: sk}
	for i := 0; i+1 < len(attrs); i += 2 {
		it[attrs[i].(string)] = attrs[i+1]
	}
	return it
}

func sortKeys(items []table.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.String(table.AttrSK))
	}
	return out
}

// RunSuite exercises the behaviour shared by every backend.
func RunSuite(t *testing.T, newTable func(t *testing.T) table.Table) {
	ctx := context.Background()

	t.Run("get missing returns nil", func(t *testing.T) {
		tbl := newTable(t)
		got, err := tbl.Get(ctx, table.Key{PK: "org", SK: "nope"})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("put overwrites whole item", func(t *testing.T) {
		tbl := newTable(t)
		require.NoError(t, tbl.Put(ctx, item("org", "a#INFO", "summary", "one", "extra", "x")))
		require.NoError(t, tbl.Put(ctx, item("org", "a#INFO", "summary", "two")))

		got, err := tbl.Get(ctx, table.Key{PK: "org", SK: "a#INFO"})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "two", got.String("summary"))
		assert.NotContains(t, got, "extra")
	})

	t.Run("put rejects item without key", func(t *testing.T) {
		tbl := newTable(t)
		assert.ErrorIs(t, tbl.Put(ctx, table.Item{table.AttrPK: "org"}), table.ErrMissingKey)
	})

	t.Run("delete", func(t *testing.T) {
		tbl := newTable(t)
		require.NoError(t, tbl.Put(ctx, item("org", "a#INFO")))
		require.NoError(t, tbl.Delete(ctx, table.Key{PK: "org", SK: "a#INFO"}))
		require.NoError(t, tbl.Delete(ctx, table.Key{PK: "org", SK: "a#INFO"}))

		got, err := tbl.Get(ctx, table.Key{PK: "org", SK: "a#INFO"})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("query filters partition and prefix in sort order", func(t *testing.T) {
		tbl := newTable(t)
		for _, sk := range []string{"b#INFO", "a#INFO#EDIT", "a#CONSEQUENCE#1", "a#INFO", "A#INFO"} {
			require.NoError(t, tbl.Put(ctx, item("org", sk)))
		}
		require.NoError(t, tbl.Put(ctx, item("other", "a#INFO")))

		got, err := tbl.Query(ctx, "org", "a#")
		require.NoError(t, err)
		assert.Equal(t, []string{"a#CONSEQUENCE#1", "a#INFO", "a#INFO#EDIT"}, sortKeys(got))

		all, err := tbl.Query(ctx, "org", "")
		require.NoError(t, err)
		assert.Len(t, all, 5)
	})

	t.Run("query keeps attribute types", func(t *testing.T) {
		tbl := newTable(t)
		require.NoError(t, tbl.Put(ctx, item("org", "a#INFO", "isDeleted", true, "count", 3, "tags", []any{"x"})))

		got, err := tbl.Query(ctx, "org", "a#")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, got[0].Bool("isDeleted"))
		assert.EqualValues(t, 3, got[0]["count"])
		assert.Equal(t, []any{"x"}, got[0]["tags"])
	})

	t.Run("query page walks every row once", func(t *testing.T) {
		tbl := newTable(t)
		var want []string
		for i := 0; i < 7; i++ {
			sk := fmt.Sprintf("d%02d#INFO", i)
			want = append(want, sk)
			require.NoError(t, tbl.Put(ctx, item("org", sk)))
		}

		var got []string
		token := ""
		pages := 0
		for {
			page, err := tbl.QueryPage(ctx, "org", "", 3, token)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(page.Items), 3)
			got = append(got, sortKeys(page.Items)...)
			pages++
			if page.NextToken == "" {
				break
			}
			token = page.NextToken
		}
		assert.Equal(t, want, got)
		assert.Equal(t, 3, pages)
	})

	t.Run("query page rejects bad token", func(t *testing.T) {
		tbl := newTable(t)
		_, err := tbl.QueryPage(ctx, "org", "", 3, "%%%")
		assert.ErrorIs(t, err, table.ErrInvalidToken)
	})

	t.Run("transact write applies puts and deletes", func(t *testing.T) {
		tbl := newTable(t)
		require.NoError(t, tbl.Put(ctx, item("org", "a#INFO#EDIT", "summary", "edited")))

		err := tbl.TransactWrite(ctx, []table.WriteOp{
			table.PutOp(item("org", "a#INFO", "summary", "edited")),
			table.DeleteOp(table.Key{PK: "org", SK: "a#INFO#EDIT"}),
		})
		require.NoError(t, err)

		got, err := tbl.Query(ctx, "org", "a#")
		require.NoError(t, err)
		assert.Equal(t, []string{"a#INFO"}, sortKeys(got))
		assert.Equal(t, "edited", got[0].String("summary"))
	})

	t.Run("transact write over the limit writes nothing", func(t *testing.T) {
		tbl := newTable(t)
		ops := make([]table.WriteOp, 0, table.MaxTransactItems+1)
		for i := 0; i <= table.MaxTransactItems; i++ {
			ops = append(ops, table.PutOp(item("org", fmt.Sprintf("x#%03d", i))))
		}
		assert.ErrorIs(t, tbl.TransactWrite(ctx, ops), table.ErrTransactionTooLarge)

		got, err := tbl.Query(ctx, "org", "x#")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
