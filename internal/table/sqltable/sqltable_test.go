package sqltable_test

import (
	"context"
	"testing"

	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/table"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/table/sqltable"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/table/tabletest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLTable(t *testing.T) {
	tabletest.RunSuite(t, func(t *testing.T) table.Table {
		return tabletest.NewSQL(t, "disruptions")
	})
}

func TestSQLTable_LogicalTablesAreIsolated(t *testing.T) {
	ctx := context.Background()
	db := tabletest.OpenSQLite(t)
	live := sqltable.New(db, "disruptions")
	templates := sqltable.New(db, "templates")

	require.NoError(t, live.Put(ctx, table.Item{table.AttrPK: "org", table.AttrSK: "a#INFO"}))

	got, err := templates.Get(ctx, table.Key{PK: "org", SK: "a#INFO"})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, "templates", templates.Name())
}

func TestSQLTable_PrefixWithLikeWildcards(t *testing.T) {
	ctx := context.Background()
	tbl := tabletest.NewSQL(t, "disruptions")

	require.NoError(t, tbl.Put(ctx, table.Item{table.AttrPK: "org", table.AttrSK: "a_b#INFO"}))
	require.NoError(t, tbl.Put(ctx, table.Item{table.AttrPK: "org", table.AttrSK: "axb#INFO"}))

	got, err := tbl.Query(ctx, "org", "a_b")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a_b#INFO", got[0].String(table.AttrSK))
}
