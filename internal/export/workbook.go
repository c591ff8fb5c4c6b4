// Package export writes tournament standings and pairings as an XLSX workbook.
package export

import (
	"fmt"
	"io"

	"github.com/AdamBeresnev/chesseirb/internal/swiss"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const (
	StandingsSheet = "Standings"
	PairingsSheet  = "Pairings"
)

var (
	standingsHeader = []any{"Rank", "Player", "Score", "Tie-break", "Whites", "Blacks", "Played"}
	pairingsHeader  = []any{"Round", "Board", "White", "Black", "Result"}
)

// WriteWorkbook renders standings and every match to w. Names resolves
// player ids; matches must carry their round number.
func WriteWorkbook(w io.Writer, standings []swiss.Standing, matches []swiss.Match, names map[uuid.UUID]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", StandingsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(PairingsSheet); err != nil {
		return fmt.Errorf("failed to create pairings sheet: %w", err)
	}

	if err := writeRow(f, StandingsSheet, 1, standingsHeader); err != nil {
		return err
	}
	for i, s := range standings {
		row := []any{i + 1, s.Participant.Name, s.Score, s.TieBreak, s.Whites, s.Blacks, s.MatchesPlayed}
		if err := writeRow(f, StandingsSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := writeRow(f, PairingsSheet, 1, pairingsHeader); err != nil {
		return err
	}
	for i, m := range matches {
		row := []any{m.RoundNumber, m.Board, playerName(m.WhitePlayerID, names), playerName(m.BlackPlayerID, names), string(m.Result)}
		if err := writeRow(f, PairingsSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func playerName(id *uuid.UUID, names map[uuid.UUID]string) string {
	if id == nil {
		return ""
	}
	if name, ok := names[*id]; ok {
		return name
	}
	return id.String()
}
