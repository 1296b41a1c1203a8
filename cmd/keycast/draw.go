package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keycast/internal/palette"
)

var (
	styleDefault  = tcell.StyleDefault
	styleHeader   = tcell.StyleDefault.Bold(true)
	styleCategory = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleKeys     = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	styleDim      = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleRecord   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleSelected = tcell.StyleDefault.Reverse(true)
)

// frame is the state snapshot a single draw renders from.
type frame struct {
	screen      tcell.Screen
	pending     string
	status      []string
	paletteOpen bool
	query       string
	selection   int
	results     []palette.SearchResult
	awaitRecord bool
	awaitPlay   bool
}

func (a *app) snapshot() frame {
	a.mu.Lock()
	defer a.mu.Unlock()

	return frame{
		screen:      a.screen,
		pending:     a.pending,
		status:      append([]string(nil), a.status...),
		paletteOpen: a.paletteOpen,
		query:       a.query,
		selection:   a.selection,
		results:     a.results,
		awaitRecord: a.awaitRecord,
		awaitPlay:   a.awaitPlay,
	}
}

func (a *app) draw() {
	f := a.snapshot()
	if f.screen == nil {
		return
	}

	s := f.screen
	s.Clear()
	width, height := s.Size()

	drawText(s, 0, 0, styleHeader, fmt.Sprintf("keycast %s", version))
	drawText(s, 0, 1, styleDim, fmt.Sprintf("policy=%s  timeout=%s",
		a.settings.Policy, a.settings.Timeout()))

	y := 3
	for _, group := range a.registry.ByCategory() {
		if y >= height-maxStatusLines-4 {
			break
		}
		drawText(s, 0, y, styleCategory, group.Name)
		y++
		for _, b := range group.Bindings {
			if y >= height-maxStatusLines-4 {
				break
			}
			drawText(s, 2, y, styleKeys, fmt.Sprintf("%-12s", b.Keys))
			line := b.Description
			if !b.Active {
				line += " (inactive)"
			}
			drawText(s, 15, y, styleDefault, line)
			y++
		}
	}

	a.drawStatusArea(s, f, width, height)

	if f.paletteOpen {
		drawPaletteOverlay(s, f, width, height)
	}

	s.Show()
}

func (a *app) drawStatusArea(s tcell.Screen, f frame, width, height int) {
	base := height - maxStatusLines - 3

	switch {
	case a.recorder.IsRecording():
		drawText(s, 0, base, styleRecord,
			fmt.Sprintf("REC @%c", a.recorder.CurrentRegister()))
	case f.awaitRecord:
		drawText(s, 0, base, styleRecord, "record: register?")
	case f.awaitPlay:
		drawText(s, 0, base, styleStatus, "play: register?")
	case f.pending != "":
		drawText(s, 0, base, styleKeys, "pending: "+f.pending)
	}

	if regs := a.recorder.Registers(); len(regs) > 0 {
		drawText(s, width/2, base, styleDim, "macros: "+string(regs))
	}

	for i, line := range f.status {
		drawText(s, 0, base+1+i, styleStatus, line)
	}

	m := a.dispatcher.Metrics().Snapshot()
	drawText(s, 0, height-2, styleDim,
		fmt.Sprintf("keys=%d actions=%d timeouts=%d misses=%d",
			m.KeyEventsTotal, m.ActionsTotal, m.SequenceTimeouts, m.MissesTotal))
	drawText(s, 0, height-1, styleDim,
		"C-p palette  C-r record  C-g play  Q quit")
}

func drawPaletteOverlay(s tcell.Screen, f frame, width, height int) {
	boxW := width * 3 / 4
	if boxW > 70 {
		boxW = 70
	}
	if boxW < 20 {
		boxW = width
	}
	boxH := len(f.results) + 3
	x := (width - boxW) / 2
	y := 2
	if y+boxH > height {
		boxH = height - y
	}

	fillRect(s, x, y, boxW, boxH, styleDefault)
	drawText(s, x+1, y, styleHeader, "> "+f.query+"_")

	for i, r := range f.results {
		row := y + 2 + i
		if row >= y+boxH {
			break
		}
		style := styleDefault
		if i == f.selection {
			style = styleSelected
		}
		line := fmt.Sprintf(" %-*s", boxW-2, paletteLine(r, boxW-2))
		drawText(s, x+1, row, style, line[:min(len(line), boxW-1)])
	}
}

func paletteLine(r palette.SearchResult, width int) string {
	line := r.Command.Title
	if r.Command.Keybinding != "" {
		line += "  [" + r.Command.Keybinding + "]"
	}
	if len(line) > width {
		line = line[:width]
	}
	return line
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	col := x
	for _, r := range text {
		s.SetContent(col, y, r, nil, style)
		col++
	}
}

func fillRect(s tcell.Screen, x, y, w, h int, style tcell.Style) {
	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			s.SetContent(col, row, ' ', nil, style)
		}
	}
}
