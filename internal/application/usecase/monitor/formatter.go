package monitor

import (
	"strings"

	"cwatch/internal/domain/model"
)

const (
	ansiReset    = "\033[0m"
	ansiRed      = "\033[31m"
	ansiGreen    = "\033[32m"
	ansiYellow   = "\033[33m"
	ansiDim      = "\033[2m"
	ansiClearEOL = "\033[K"
)

func colorize(s, c string) string { return c + s + ansiReset }

type Formatter struct {
	NoColor bool
}

func NewFormatter(noColor bool) *Formatter {
	return &Formatter{NoColor: noColor}
}

type RenderMode int

const (
	RenderLive RenderMode = iota
	RenderSnapshot
)

func (f *Formatter) paint(s, c string) string {
	if f.NoColor {
		return s
	}
	return colorize(s, c)
}

// Render 渲染选中列表的一行行情
func (f *Formatter) Render(w model.Watchlist, selected bool, cache *PriceCache, mode RenderMode) string {
	var sb strings.Builder
	if mode == RenderLive {
		sb.WriteString("\r")
	}

	sb.WriteString(f.paint("[CWATCH] ", ansiDim))

	switch {
	case !selected:
		sb.WriteString("No watchlists yet. Create one to get started!")
	case len(w.Symbols) == 0:
		sb.WriteString(w.Name)
		sb.WriteString(f.paint(" (empty)", ansiDim))
	default:
		sb.WriteString(w.Name)
		sb.WriteString(f.paint(" | ", ansiDim))
		for i, sym := range w.Symbols {
			if i > 0 {
				sb.WriteString(f.paint("  ||  ", ansiDim))
			}
			sb.WriteString(sym)
			sb.WriteString(" ")

			q, dir, ok := cache.Get(sym)
			if !ok {
				sb.WriteString(f.paint("Loading...", ansiDim))
				continue
			}

			pCol := ansiYellow
			switch dir {
			case DirUp:
				pCol = ansiGreen
			case DirDown:
				pCol = ansiRed
			}
			sb.WriteString(f.paint("$"+q.FormatPrice(), pCol))
			sb.WriteString(" ")

			cCol := ansiRed
			if q.Up() {
				cCol = ansiGreen
			}
			sb.WriteString(f.paint(q.FormatPercent(), cCol))
		}
	}

	if mode == RenderLive && !f.NoColor {
		sb.WriteString(ansiClearEOL)
	}
	return sb.String()
}

// RenderResults 渲染搜索结果，每行一个币种
func (f *Formatter) RenderResults(results []model.SearchResult) string {
	if len(results) == 0 {
		return "No results found\n"
	}
	var sb strings.Builder
	for _, r := range results {
		cCol := ansiRed
		if r.Up() {
			cCol = ansiGreen
		}
		sb.WriteString(r.Symbol)
		sb.WriteString("\t$")
		sb.WriteString(r.FormatPrice())
		sb.WriteString("\t")
		sb.WriteString(f.paint(r.FormatPercent(), cCol))
		sb.WriteString("\n")
	}
	return sb.String()
}
