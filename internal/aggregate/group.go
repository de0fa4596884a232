package aggregate

import (
	"github.com/discochess/moveloss/internal/record"
)

// Key names used by grouped tables.
const (
	KeyPlayer = "player"
	KeyGame   = "id"
)

// Per-game column names. Loss columns are suffixed with the model name.
const (
	GameElo      = "elo"
	GameScore    = "score"
	GameMoves    = "moves"
	GameBestMove = "bestmove"
	GameACPL     = "acpl"
	GameACPL2    = "acpl2"

	totalLossPrefix   = "tel_"
	averageLossPrefix = "ael_"
)

// TotalLossColumn is the per-game column holding the summed loss of model.
func TotalLossColumn(model string) string { return totalLossPrefix + model }

// AverageLossColumn is the per-game column holding the mean loss of model.
func AverageLossColumn(model string) string { return averageLossPrefix + model }

// PerPlayerGame summarizes each (player, game) pair. Moves counts every
// record of the game; acpl2 leaves out positions evaluated below floor.
func PerPlayerGame(records []record.Metrics, models []string, floor int) Table {
	names := []string{ColElo, ColScore, ColBestMove, ColCPL, ColCPL2}
	for _, m := range models {
		names = append(names, LossColumn(m))
	}
	// Built-in names always resolve.
	cols, _ := Columns(names, floor)

	g := newGrouper(len(cols))
	for _, m := range records {
		g.addRecord([]string{m.Player, m.ID}, m, cols)
	}

	t := Table{
		KeyNames: []string{KeyPlayer, KeyGame},
		Columns:  []string{GameElo, GameScore, GameMoves, GameBestMove, GameACPL, GameACPL2},
	}
	for _, m := range models {
		t.Columns = append(t.Columns, TotalLossColumn(m), AverageLossColumn(m))
	}

	for _, gr := range g.sorted() {
		cells := []Value{
			gr.accs[0].Mean(),
			gr.accs[1].Mean(),
			Of(float64(gr.rows)),
			gr.accs[2].Mean(),
			gr.accs[3].Mean(),
			gr.accs[4].Mean(),
		}
		for i := range models {
			acc := gr.accs[5+i]
			cells = append(cells, acc.Sum(), acc.Mean())
		}
		t.Rows = append(t.Rows, Row{Key: gr.key, Cells: cells})
	}
	return t
}

// PerPlayer aggregates move-level records by player.
func PerPlayer(records []record.Metrics, cols []Column, aggs []Agg) Table {
	g := newGrouper(len(cols))
	for _, m := range records {
		g.addRecord([]string{m.Player}, m, cols)
	}
	return aggTable([]string{KeyPlayer}, g.sorted(), cols, aggs)
}

// PerPlayerOfGames averages the rows of a per-game table by player, so
// every game weighs the same regardless of its length.
func PerPlayerOfGames(games Table) Table {
	g := newGrouper(len(games.Columns))
	for _, row := range games.Rows {
		if len(row.Key) == 0 {
			continue
		}
		gr := g.get([]string{row.Key[0]})
		gr.rows++
		for i, v := range row.Cells {
			if v.Valid {
				gr.accs[i].Add(v.V)
			}
		}
	}

	t := Table{KeyNames: []string{KeyPlayer}}
	for _, c := range games.Columns {
		t.Columns = append(t.Columns, CellName(Mean, c))
	}
	for _, gr := range g.sorted() {
		row := Row{Key: gr.key, Cells: make([]Value, len(gr.accs))}
		for i, acc := range gr.accs {
			row.Cells[i] = acc.Mean()
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
