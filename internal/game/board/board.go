// Package board holds the four typed grids cards are placed onto and the
// stacking rules for identical cards sharing a cell.
package board

import (
	"errors"

	"github.com/dmklda/farmandcity-sub002/internal/catalog"
)

// Placement rejections. Phase and resource legality belong to the engine.
var (
	ErrWrongGrid     = errors.New("card type does not belong on this grid")
	ErrOutOfBounds   = errors.New("cell is outside the grid")
	ErrNotStackable  = errors.New("cell occupied and card is not stackable with it")
	ErrCellEmpty     = errors.New("cell is empty")
	ErrNoGridForType = errors.New("card type is not placed on a grid")
)

// GridType identifies one of the four board grids.
type GridType string

const (
	GridFarm     GridType = "farm"
	GridCity     GridType = "city"
	GridLandmark GridType = "landmark"
	GridEvent    GridType = "event"
)

// Grid dimensions, matching the original board layout.
const (
	FarmRows, FarmCols         = 3, 4
	CityRows, CityCols         = 4, 3
	LandmarkRows, LandmarkCols = 1, 3
	EventRows, EventCols       = 1, 2
)

// Cell is one board position: a base card plus any identical cards
// stacked on it. An empty cell has a nil Base.
type Cell struct {
	Base  *catalog.Card  `json:"base,omitempty"`
	Stack []catalog.Card `json:"stack,omitempty"`
}

// Occupied reports whether the cell holds a card.
func (c *Cell) Occupied() bool {
	return c.Base != nil
}

// Count returns the number of cards in the cell including the base.
func (c *Cell) Count() int {
	if c.Base == nil {
		return 0
	}
	return 1 + len(c.Stack)
}

// Level returns the cell's effective level, capped at 4.
func (c *Cell) Level() int {
	return Level(c.Count())
}

// Grid is a fixed-size 2-D array of cells.
type Grid struct {
	Type  GridType `json:"type"`
	Rows  int      `json:"rows"`
	Cols  int      `json:"cols"`
	Cells [][]Cell `json:"cells"`
}

func newGrid(gridType GridType, rows, cols int) Grid {
	cells := make([][]Cell, rows)
	for i := range cells {
		cells[i] = make([]Cell, cols)
	}
	return Grid{Type: gridType, Rows: rows, Cols: cols, Cells: cells}
}

// Cell returns the cell at (x, y), where x is the column and y the row.
func (g *Grid) Cell(x, y int) (*Cell, error) {
	if y < 0 || y >= g.Rows || x < 0 || x >= g.Cols {
		return nil, ErrOutOfBounds
	}
	return &g.Cells[y][x], nil
}

// Board is the four typed grids.
type Board struct {
	Farm     Grid `json:"farm"`
	City     Grid `json:"city"`
	Landmark Grid `json:"landmark"`
	Event    Grid `json:"event"`
}

// New creates an empty board.
func New() *Board {
	return &Board{
		Farm:     newGrid(GridFarm, FarmRows, FarmCols),
		City:     newGrid(GridCity, CityRows, CityCols),
		Landmark: newGrid(GridLandmark, LandmarkRows, LandmarkCols),
		Event:    newGrid(GridEvent, EventRows, EventCols),
	}
}

// Grid returns the grid of the given type.
func (b *Board) Grid(gridType GridType) *Grid {
	switch gridType {
	case GridFarm:
		return &b.Farm
	case GridCity:
		return &b.City
	case GridLandmark:
		return &b.Landmark
	case GridEvent:
		return &b.Event
	default:
		return nil
	}
}

// GridForCard returns the grid a card type is placed on. Action, magic,
// defense and trap cards are played from the hand, not placed.
func GridForCard(cardType catalog.CardType) (GridType, error) {
	switch cardType {
	case catalog.TypeFarm:
		return GridFarm, nil
	case catalog.TypeCity:
		return GridCity, nil
	case catalog.TypeLandmark:
		return GridLandmark, nil
	case catalog.TypeEvent:
		return GridEvent, nil
	default:
		return "", ErrNoGridForType
	}
}

// Stackable reports whether next may be stacked on top: same name, same
// type, and a farm or city card. Event cards never stack.
func Stackable(top, next catalog.Card) bool {
	if next.Type != catalog.TypeFarm && next.Type != catalog.TypeCity {
		return false
	}
	return top.Name == next.Name && top.Type == next.Type
}

// CanPlace validates a placement without mutating the board.
func (b *Board) CanPlace(gridType GridType, x, y int, card catalog.Card) error {
	want, err := GridForCard(card.Type)
	if err != nil {
		return err
	}
	if want != gridType {
		return ErrWrongGrid
	}
	grid := b.Grid(gridType)
	cell, err := grid.Cell(x, y)
	if err != nil {
		return err
	}
	if !cell.Occupied() {
		return nil
	}
	// Event cells always accept replacement of their occupant.
	if gridType == GridEvent {
		return nil
	}
	if !Stackable(*cell.Base, card) {
		return ErrNotStackable
	}
	return nil
}

// Place puts the card on the board. Call CanPlace first; Place repeats
// the validation and leaves the board unchanged on rejection.
// On an event cell the previous occupant is replaced and returned.
func (b *Board) Place(gridType GridType, x, y int, card catalog.Card) (replaced *catalog.Card, err error) {
	if err := b.CanPlace(gridType, x, y, card); err != nil {
		return nil, err
	}
	cell, _ := b.Grid(gridType).Cell(x, y)
	if !cell.Occupied() {
		c := card
		cell.Base = &c
		return nil, nil
	}
	if gridType == GridEvent {
		old := *cell.Base
		c := card
		cell.Base = &c
		cell.Stack = nil
		return &old, nil
	}
	cell.Stack = append(cell.Stack, card)
	return nil, nil
}

// RemoveAt clears a cell, returning the cards it held (base first).
func (b *Board) RemoveAt(gridType GridType, x, y int) ([]catalog.Card, error) {
	grid := b.Grid(gridType)
	if grid == nil {
		return nil, ErrWrongGrid
	}
	cell, err := grid.Cell(x, y)
	if err != nil {
		return nil, err
	}
	if !cell.Occupied() {
		return nil, ErrCellEmpty
	}
	removed := append([]catalog.Card{*cell.Base}, cell.Stack...)
	cell.Base = nil
	cell.Stack = nil
	return removed, nil
}

// CellRef addresses one occupied cell.
type CellRef struct {
	Grid GridType `json:"grid"`
	X    int      `json:"x"`
	Y    int      `json:"y"`
}

// OccupiedCells returns references to every occupied cell on the given
// grids, row-major per grid.
func (b *Board) OccupiedCells(gridTypes ...GridType) []CellRef {
	var refs []CellRef
	for _, gt := range gridTypes {
		grid := b.Grid(gt)
		if grid == nil {
			continue
		}
		for y := 0; y < grid.Rows; y++ {
			for x := 0; x < grid.Cols; x++ {
				if grid.Cells[y][x].Occupied() {
					refs = append(refs, CellRef{Grid: gt, X: x, Y: y})
				}
			}
		}
	}
	return refs
}

// DistinctPlacedTypes counts distinct base cards by name across the
// farm and city grids, feeding the end-of-turn diversity bonus. Stacks
// count once.
func (b *Board) DistinctPlacedTypes() int {
	seen := map[string]bool{}
	for _, ref := range b.OccupiedCells(GridFarm, GridCity) {
		cell, _ := b.Grid(ref.Grid).Cell(ref.X, ref.Y)
		seen[cell.Base.Name] = true
	}
	return len(seen)
}

// HasCrisisEvent reports whether a crisis-rarity event is in place,
// which legalizes defense-card play.
func (b *Board) HasCrisisEvent() bool {
	for _, ref := range b.OccupiedCells(GridEvent) {
		cell, _ := b.Grid(ref.Grid).Cell(ref.X, ref.Y)
		if cell.Base.Rarity == catalog.RarityCrisis {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	clone := New()
	for _, gt := range []GridType{GridFarm, GridCity, GridLandmark, GridEvent} {
		src := b.Grid(gt)
		dst := clone.Grid(gt)
		for y := 0; y < src.Rows; y++ {
			for x := 0; x < src.Cols; x++ {
				cell := src.Cells[y][x]
				if cell.Base != nil {
					base := *cell.Base
					dst.Cells[y][x].Base = &base
				}
				if len(cell.Stack) > 0 {
					dst.Cells[y][x].Stack = append([]catalog.Card(nil), cell.Stack...)
				}
			}
		}
	}
	return clone
}
