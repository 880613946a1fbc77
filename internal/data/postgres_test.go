package data

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeTable struct {
	columns []string
	rows    [][]any
}

type fakeRows struct {
	table fakeTable
	pos   int
}

func (r *fakeRows) Close()                        {}
func (r *fakeRows) Err() error                    { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *fakeRows) Scan(...any) error             { return errors.New("not supported") }
func (r *fakeRows) RawValues() [][]byte           { return nil }
func (r *fakeRows) Conn() *pgx.Conn               { return nil }

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	fields := make([]pgconn.FieldDescription, len(r.table.columns))
	for i, name := range r.table.columns {
		fields[i] = pgconn.FieldDescription{Name: name}
	}
	return fields
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.table.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	return r.table.rows[r.pos-1], nil
}

// fakeQuerier serves tables by name; tables it does not know are missing
// relations.
type fakeQuerier struct {
	tables  map[string]fakeTable
	failing map[string]error
	queries []string
}

func (q *fakeQuerier) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	q.queries = append(q.queries, sql)
	_, rest, _ := strings.Cut(sql, `"`)
	table, _, _ := strings.Cut(rest, `"`)
	if err, ok := q.failing[table]; ok {
		return nil, err
	}
	t, ok := q.tables[table]
	if !ok {
		return nil, &pgconn.PgError{Code: undefinedTable, Message: "relation does not exist"}
	}
	return &fakeRows{table: t}, nil
}

func TestLoadPostgresMapsRows(t *testing.T) {
	q := &fakeQuerier{tables: map[string]fakeTable{
		TableSpaces: {
			columns: []string{"row_index", "Space_Name", "visit_type", "is_starting_space", "w_card"},
			rows: [][]any{
				{int64(1), " OWNER-SCOPE-INITIATION ", "First", "Yes", nil},
				{int64(2), "ARCH-INITIATION", "First", "No", "Draw 2"},
			},
		},
		TableCards: {
			columns: []string{"row_index", "card_id", "card_type", "work_cost"},
			rows: [][]any{
				{int64(1), "W001", "W", int64(1000)},
			},
		},
	}}

	db, err := LoadPostgres(context.Background(), q, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.True(t, db.Loaded())
	assert.Len(t, q.queries, len(Tables))
	assert.Contains(t, q.queries[0], "ORDER BY row_index")

	start, ok := db.StartingSpace()
	require.True(t, ok)
	assert.Equal(t, "OWNER-SCOPE-INITIATION", start)

	row, ok := db.Space(start, "First")
	require.True(t, ok)
	assert.Equal(t, "", row.Get("w_card"), "NULL reads as empty")
	assert.False(t, row.Has("row_index"))
	assert.Equal(t, "Draw 2", mustSpace(t, db, "ARCH-INITIATION").Get("w_card"))

	card, ok := db.CardByID("W001")
	require.True(t, ok)
	assert.Equal(t, "1000", card.Get("work_cost"))

	assert.Empty(t, db.SpaceEffects(start, "First"), "missing tables load as empty")
}

func TestLoadPostgresPropagatesQueryErrors(t *testing.T) {
	q := &fakeQuerier{
		tables:  map[string]fakeTable{},
		failing: map[string]error{TableDiceOutcomes: errors.New("connection reset")},
	}

	_, err := LoadPostgres(context.Background(), q, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), TableDiceOutcomes)
	assert.Contains(t, err.Error(), "connection reset")
}

func mustSpace(t *testing.T, db *Database, name string) Row {
	t.Helper()
	row, ok := db.Space(name, "First")
	require.True(t, ok, name)
	return row
}
