// Package render draws positions as SVG diagrams.
package render

import (
	"errors"
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/hailam/negachess/internal/board"
)

const (
	lightSquare = "fill:#f0d9b5"
	darkSquare  = "fill:#b58863"
	markStyle   = "fill:#cdd26a;fill-opacity:0.8"
	labelStyle  = "font-family:sans-serif;fill:#555"
)

// MinSize is the smallest diagram that still fits the coordinates.
const MinSize = 80

// Unicode chess figurines, indexed by board.Piece.
var glyphs = [12]string{
	"♙", "♘", "♗", "♖", "♕", "♔",
	"♟", "♞", "♝", "♜", "♛", "♚",
}

// WriteSVG writes a size x size diagram of pos, White at the bottom, with
// the given squares highlighted.
func WriteSVG(w io.Writer, pos *board.Position, size int, marks ...board.Square) error {
	if pos == nil {
		return errors.New("render: nil position")
	}
	if size < MinSize {
		return fmt.Errorf("render: size %d below minimum %d", size, MinSize)
	}

	cw := &errWriter{w: w}
	canvas := svg.New(cw)
	canvas.Start(size, size)
	canvas.Title(pos.ToFEN())

	// A margin of half a square on the left and bottom holds the labels.
	sq := size * 2 / 17
	margin := size - 8*sq

	marked := make(map[board.Square]bool, len(marks))
	for _, m := range marks {
		marked[m] = true
	}

	for rank := 7; rank >= 0; rank-- {
		y := (7 - rank) * sq
		for file := 0; file < 8; file++ {
			x := margin + file*sq
			s := board.NewSquare(file, rank)

			style := darkSquare
			if (file+rank)%2 == 1 {
				style = lightSquare
			}
			canvas.Rect(x, y, sq, sq, style)
			if marked[s] {
				canvas.Rect(x, y, sq, sq, markStyle)
			}

			if pc := pos.PieceAt(s); pc != board.NoPiece {
				canvas.Text(x+sq/2, y+sq*4/5, glyphs[pc],
					fmt.Sprintf("font-size:%dpx;text-anchor:middle", sq*4/5))
			}
		}
		canvas.Text(margin/2, y+sq*3/5, fmt.Sprint(rank+1),
			fmt.Sprintf("%s;font-size:%dpx;text-anchor:middle", labelStyle, margin*3/5))
	}
	for file := 0; file < 8; file++ {
		canvas.Text(margin+file*sq+sq/2, 8*sq+margin*4/5, string(rune('a'+file)),
			fmt.Sprintf("%s;font-size:%dpx;text-anchor:middle", labelStyle, margin*3/5))
	}

	canvas.End()
	return cw.err
}

// errWriter remembers the first write error; svgo itself drops them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}
