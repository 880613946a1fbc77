package data

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"500", 500},
		{"-500", -500},
		{"$1,000", 1000},
		{"4M", 4000000},
		{"1.5m", 1500000},
		{"2.75M", 2750000},
		{"250K", 250000},
		{"2B", 2000000000},
		{" 12 ", 12},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"lots", "NaN", "Inf", "-inf", "1e30", "1e19", "-1e19", "1e10B"} {
		_, err := ParseAmount(bad)
		assert.Error(t, err, bad)
	}
}

func TestLeadingInt(t *testing.T) {
	v, ok := LeadingInt("5 days")
	assert.True(t, ok)
	assert.Equal(t, 5, v)

	v, ok = LeadingInt("-3")
	assert.True(t, ok)
	assert.Equal(t, -3, v)

	_, ok = LeadingInt("none")
	assert.False(t, ok)
}

func TestRowAccessors(t *testing.T) {
	row := Row{"money_effect": " 1.5M ", "use_dice": "Yes", "name": " Plan "}
	assert.Equal(t, 1500000, row.Int("money_effect"))
	assert.True(t, row.Bool("use_dice"))
	assert.False(t, row.Bool("missing"))
	assert.Equal(t, "Plan", row.Get("name"))
	assert.False(t, row.Has("missing"))

	var empty Row
	assert.Equal(t, "", empty.Get("anything"))
}

func TestReadCSV(t *testing.T) {
	input := "Space_Name,Visit_Type,Effect_Type,Effect_Value\n" +
		"OWNER-SCOPE-INITIATION,First,e_money,-500\n" +
		",,,\n" +
		"PM-DECISION-CHECK,Subsequent,time\n"

	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "OWNER-SCOPE-INITIATION", rows[0].Get("space_name"))
	assert.Equal(t, "-500", rows[0].Get("effect_value"))
	assert.Equal(t, "", rows[1].Get("effect_value"))
}

func TestDatabaseQueries(t *testing.T) {
	db := NewDatabase(map[string][]Row{
		TableSpaces: {
			{"space_name": "START", "visit_type": "First", "is_starting_space": "true", "requires_dice_roll": "yes"},
			{"space_name": "START", "visit_type": "Subsequent"},
		},
		TableSpaceEffects: {
			{"space_name": "START", "visit_type": "First", "effect_type": "time", "effect_value": "1"},
			{"space_name": "START", "visit_type": "First", "effect_type": "e_money", "effect_value": "-5"},
		},
		TableDiceEffects: {
			{"space_name": "START", "visit_type": "First", "card_type": "W", "roll_1": "Draw 1"},
		},
		TableCards: {
			{"card_id": "W001", "card_type": "w"},
			{"card_id": "B001", "card_type": "B"},
		},
	})

	assert.True(t, db.Loaded())

	start, ok := db.StartingSpace()
	assert.True(t, ok)
	assert.Equal(t, "START", start)

	row, ok := db.Space("START", "first")
	require.True(t, ok)
	assert.True(t, row.Bool("requires_dice_roll"))

	assert.Len(t, db.SpaceEffects("START", "First"), 2)
	assert.Empty(t, db.SpaceEffects("START", "Subsequent"))

	dice, ok := db.DiceEffect("START", "First", "w")
	require.True(t, ok)
	assert.Equal(t, "Draw 1", dice.Get("roll_1"))

	assert.Len(t, db.CardsByType("W"), 1)
	_, ok = db.CardByID("B001")
	assert.True(t, ok)
}

func TestEmptyDatabaseIsNotLoaded(t *testing.T) {
	db := EmptyDatabase()
	assert.False(t, db.Loaded())
	assert.Nil(t, db.SpaceEffects("START", "First"))
	_, ok := db.StartingSpace()
	assert.False(t, ok)
	assert.Nil(t, db.CardsByType("W"))
}

func TestLoadDirTreatsMissingTablesAsEmpty(t *testing.T) {
	dir := t.TempDir()
	content := "card_id,card_type,loan_amount\nB001,B,100000\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cards.csv"), []byte(content), 0o644))

	db, err := LoadDir(dir, zaptest.NewLogger(t))
	require.NoError(t, err)

	cards := db.CardsByType("B")
	require.Len(t, cards, 1)
	assert.Equal(t, 100000, cards[0].Int("loan_amount"))
	assert.Empty(t, db.SpaceEffects("START", "First"))
}
