// Package text formats help text and tables for CLI commands.
package text

import (
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Indentation prefixes every example line.
const Indentation = `  `

// LongDesc trims a long description written as an indented raw string and removes the common
// indentation of its lines.
func LongDesc(s string) string {
	return strings.Join(dedent(s), "\n")
}

// Examples is like LongDesc but indents every line by Indentation.
func Examples(s string) string {
	lines := dedent(s)
	for i, l := range lines {
		if l != "" {
			lines[i] = Indentation + l
		}
	}

	return strings.Join(lines, "\n")
}

func dedent(s string) []string {
	lines := strings.Split(s, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil
	}

	prefix := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if prefix < 0 || n < prefix {
			prefix = n
		}
	}

	for i, l := range lines {
		if len(l) >= prefix {
			lines[i] = strings.TrimRight(l[prefix:], " \t")
		} else {
			lines[i] = ""
		}
	}

	return lines
}

// Table renders rows under header as a borderless table.
func Table(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetCenterSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(rows)
	table.Render()
}
