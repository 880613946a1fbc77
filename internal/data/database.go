package data

import (
	"strings"
)

// Table names shared by the CSV and Postgres loaders.
const (
	TableSpaces       = "spaces"
	TableSpaceEffects = "space_effects"
	TableDiceOutcomes = "dice_outcomes"
	TableDiceEffects  = "dice_effects"
	TableCards        = "cards"
)

// Tables lists every table the loaders look for.
var Tables = []string{
	TableSpaces,
	TableSpaceEffects,
	TableDiceOutcomes,
	TableDiceEffects,
	TableCards,
}

// Source is the read-only query surface the game core consumes. All methods
// are synchronous and safe to call before any data has been loaded; in that
// case they report nothing found.
type Source interface {
	Loaded() bool
	Space(spaceName, visitType string) (Row, bool)
	SpaceEffects(spaceName, visitType string) []Row
	DiceOutcome(spaceName, visitType string) (Row, bool)
	DiceEffects(spaceName, visitType string) []Row
	DiceEffect(spaceName, visitType, cardType string) (Row, bool)
	CardsByType(cardType string) []Row
	CardByID(cardID string) (Row, bool)
	StartingSpace() (string, bool)
}

type spaceKey struct {
	space string
	visit string
}

func newSpaceKey(spaceName, visitType string) spaceKey {
	return spaceKey{
		space: strings.TrimSpace(spaceName),
		visit: strings.ToLower(strings.TrimSpace(visitType)),
	}
}

// Database is an immutable in-memory Source built from loaded tables.
type Database struct {
	loaded        bool
	spaces        map[spaceKey]Row
	spaceEffects  map[spaceKey][]Row
	diceOutcomes  map[spaceKey]Row
	diceEffects   map[spaceKey][]Row
	cardsByType   map[string][]Row
	cardsByID     map[string]Row
	startingSpace string
}

// NewDatabase indexes the given tables. Unknown table names are ignored.
func NewDatabase(tables map[string][]Row) *Database {
	db := &Database{
		loaded:       true,
		spaces:       make(map[spaceKey]Row),
		spaceEffects: make(map[spaceKey][]Row),
		diceOutcomes: make(map[spaceKey]Row),
		diceEffects:  make(map[spaceKey][]Row),
		cardsByType:  make(map[string][]Row),
		cardsByID:    make(map[string]Row),
	}

	for _, row := range tables[TableSpaces] {
		key := newSpaceKey(row.Get("space_name"), row.Get("visit_type"))
		if _, exists := db.spaces[key]; !exists {
			db.spaces[key] = row
		}
		if db.startingSpace == "" && row.Bool("is_starting_space") {
			db.startingSpace = key.space
		}
	}
	for _, row := range tables[TableSpaceEffects] {
		key := newSpaceKey(row.Get("space_name"), row.Get("visit_type"))
		db.spaceEffects[key] = append(db.spaceEffects[key], row)
	}
	for _, row := range tables[TableDiceOutcomes] {
		key := newSpaceKey(row.Get("space_name"), row.Get("visit_type"))
		if _, exists := db.diceOutcomes[key]; !exists {
			db.diceOutcomes[key] = row
		}
	}
	for _, row := range tables[TableDiceEffects] {
		key := newSpaceKey(row.Get("space_name"), row.Get("visit_type"))
		db.diceEffects[key] = append(db.diceEffects[key], row)
	}
	for _, row := range tables[TableCards] {
		cardType := strings.ToUpper(row.Get("card_type"))
		db.cardsByType[cardType] = append(db.cardsByType[cardType], row)
		if id := row.Get("card_id"); id != "" {
			db.cardsByID[id] = row
		}
	}

	return db
}

// EmptyDatabase returns a Source that has not been loaded yet.
func EmptyDatabase() *Database {
	return &Database{}
}

// Loaded reports whether the database was built from loaded tables.
func (db *Database) Loaded() bool {
	return db != nil && db.loaded
}

// Space returns the space definition row for a space and visit type.
func (db *Database) Space(spaceName, visitType string) (Row, bool) {
	if !db.Loaded() {
		return nil, false
	}
	row, ok := db.spaces[newSpaceKey(spaceName, visitType)]
	return row, ok
}

// SpaceEffects returns every effect row for a space and visit type, in file order.
func (db *Database) SpaceEffects(spaceName, visitType string) []Row {
	if !db.Loaded() {
		return nil
	}
	return db.spaceEffects[newSpaceKey(spaceName, visitType)]
}

// DiceOutcome returns the roll_1..roll_6 destination row for a space.
func (db *Database) DiceOutcome(spaceName, visitType string) (Row, bool) {
	if !db.Loaded() {
		return nil, false
	}
	row, ok := db.diceOutcomes[newSpaceKey(spaceName, visitType)]
	return row, ok
}

// DiceEffects returns all dice effect rows for a space, one per card type.
func (db *Database) DiceEffects(spaceName, visitType string) []Row {
	if !db.Loaded() {
		return nil
	}
	return db.diceEffects[newSpaceKey(spaceName, visitType)]
}

// DiceEffect returns the dice effect row for a space and card type.
func (db *Database) DiceEffect(spaceName, visitType, cardType string) (Row, bool) {
	for _, row := range db.DiceEffects(spaceName, visitType) {
		if strings.EqualFold(row.Get("card_type"), strings.TrimSpace(cardType)) {
			return row, true
		}
	}
	return nil, false
}

// CardsByType returns the catalog rows of a card type.
func (db *Database) CardsByType(cardType string) []Row {
	if !db.Loaded() {
		return nil
	}
	return db.cardsByType[strings.ToUpper(strings.TrimSpace(cardType))]
}

// CardByID looks a card up in the catalog.
func (db *Database) CardByID(cardID string) (Row, bool) {
	if !db.Loaded() {
		return nil, false
	}
	row, ok := db.cardsByID[strings.TrimSpace(cardID)]
	return row, ok
}

// StartingSpace returns the space flagged as the starting space.
func (db *Database) StartingSpace() (string, bool) {
	if !db.Loaded() || db.startingSpace == "" {
		return "", false
	}
	return db.startingSpace, true
}
