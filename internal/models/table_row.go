package models

import "time"

// TableRow stores one key-value row of a logical table in SQL. Tbl names the
// logical table so the disruption, template and organisation tables can share
// one physical table.
type TableRow struct {
	Tbl       string    `gorm:"column:tbl;primaryKey;size:64"`
	PK        string    `gorm:"column:pk;primaryKey;size:191"`
	SK        string    `gorm:"column:sk;primaryKey;size:191"`
	Body      string    `gorm:"column:body;type:longtext;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (TableRow) TableName() string { return "table_rows" }
