package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	reset       = "\033[0m"
	bold        = "\033[1m"
	dim         = "\033[2m"
	honeyOrange = "\033[38;5;214m"
	beeYellow   = "\033[38;5;226m"
	mint        = "\033[38;5;121m"
	seafoam     = "\033[38;5;49m"
	cobalt      = "\033[38;5;33m"
	fuchsia     = "\033[38;5;177m"
)

var letters = [][]string{
	{"████████╗", "╚══██╔══╝", "   ██║   ", "   ██║   ", "   ██║   ", "   ╚═╝   "},
	{" ██████╗ ", "██╔═══██╗", "██║   ██║", "██║   ██║", "╚██████╔╝", " ╚═════╝ "},
	{"██████╗  ", "██╔══██╗ ", "██████╔╝ ", "██╔═══╝  ", "██║      ", "╚═╝      "},
	{"██████╗ ", "██╔══██╗", "██████╔╝", "██╔══██╗", "██║  ██║", "╚═╝  ╚═╝"},
	{"███████╗", "██╔════╝", "█████╗  ", "██╔══╝  ", "███████╗", "╚══════╝"},
	{" ██████╗ ", "██╔════╝ ", "╚█████╗  ", " ╚═══██╗ ", "██████╔╝ ", "╚═════╝  "},
}

var gradient = []string{honeyOrange, beeYellow, mint, seafoam, cobalt, fuchsia}

// Banner renders the colored topres wordmark.
func Banner() string {
	var b strings.Builder

	rows := make([]string, len(letters[0]))
	for i, letter := range letters {
		color := gradient[i%len(gradient)]
		for row := 0; row < len(letter); row++ {
			rows[row] += color + letter[row] + " "
		}
	}
	for _, line := range rows {
		b.WriteString(bold + line + reset + "\n")
	}

	b.WriteString("\n")
	b.WriteString(bold + honeyOrange + "topres" + reset + "  •  top-N resource averages\n\n")

	return b.String()
}

// RunHeader describes the run about to start.
func RunHeader(rounds int, interval time.Duration, topN int) string {
	total := time.Duration(rounds-1) * interval
	return fmt.Sprintf("%sSampling %d rounds every %v, keeping top %d (about %v)%s\n",
		dim, rounds, interval, topN, total, reset)
}
