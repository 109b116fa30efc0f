package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/polcheck/internal/checker"
	"github.com/roach88/polcheck/internal/ir"
)

// PrintRows writes evaluation rows as a boxed table with a leading
// 1-based line number column:
//
//	+---+-----------+------+
//	| # | PQ1x      | PQ1y |
//	+---+-----------+------+
//	| 1 | _:o1.UQ1a | 30   |
//	+---+-----------+------+
//
// Each column is as wide as its longest cell.
func PrintRows(w io.Writer, vars []ir.Var, rows []checker.Row) {
	widths := make([]int, len(vars)+1)
	widths[0] = max(1, len(strconv.Itoa(len(rows))))
	for i, v := range vars {
		widths[i+1] = len(string(v))
	}
	for _, row := range rows {
		for i, text := range row.Texts() {
			widths[i+1] = max(widths[i+1], len(text))
		}
	}

	var rule strings.Builder
	rule.WriteString("+")
	for _, width := range widths {
		rule.WriteString(strings.Repeat("-", width+2) + "+")
	}
	border := rule.String()

	line := func(cells []string, rightAlignFirst bool) {
		var b strings.Builder
		b.WriteString("|")
		for i, cell := range cells {
			if i == 0 && rightAlignFirst {
				fmt.Fprintf(&b, " %*s |", widths[i], cell)
				continue
			}
			fmt.Fprintf(&b, " %-*s |", widths[i], cell)
		}
		fmt.Fprintln(w, b.String())
	}

	header := []string{"#"}
	for _, v := range vars {
		header = append(header, string(v))
	}

	fmt.Fprintln(w, border)
	line(header, false)
	fmt.Fprintln(w, border)
	for _, row := range rows {
		line(append([]string{strconv.Itoa(row.Line)}, row.Texts()...), true)
	}
	fmt.Fprintln(w, border)
}
