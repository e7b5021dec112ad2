package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"smap/internal/sourcemap"
)

var mappingsCmd = &cobra.Command{
	Use:   "mappings <file>",
	Short: "List the mappings of a source map",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orderStr, err := cmd.Flags().GetString("order")
		if err != nil {
			return fmt.Errorf("failed to get order flag: %w", err)
		}
		order, err := sourcemap.ParseOrder(orderStr)
		if err != nil {
			return err
		}
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return fmt.Errorf("failed to get format flag: %w", err)
		}
		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			return fmt.Errorf("failed to get limit flag: %w", err)
		}
		spans, err := cmd.Flags().GetBool("spans")
		if err != nil {
			return fmt.Errorf("failed to get spans flag: %w", err)
		}

		c, _, err := openConsumer(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer c.Close()

		if spans {
			if err := c.ComputeColumnSpans(); err != nil {
				return err
			}
		}
		list, err := collectMappings(c, order, limit)
		if err != nil {
			return err
		}

		switch format {
		case "table":
			writeMappingTable(cmd.OutOrStdout(), list, spans)
			return nil
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		default:
			return fmt.Errorf("unsupported format %q (must be table or json)", format)
		}
	},
}

func init() {
	mappingsCmd.Flags().String("order", "generated", "iteration order (generated|original)")
	mappingsCmd.Flags().String("format", "table", "output format (table|json)")
	mappingsCmd.Flags().Int("limit", 0, "stop after this many mappings (0 = all)")
	mappingsCmd.Flags().Bool("spans", false, "compute the last generated column of each mapping")
}

func collectMappings(c sourcemap.Consumer, order sourcemap.Order, limit int) ([]sourcemap.Mapping, error) {
	var list []sourcemap.Mapping
	err := c.EachMapping(order, func(m sourcemap.Mapping) {
		if limit > 0 && len(list) >= limit {
			return
		}
		list = append(list, m)
	})
	return list, err
}

func writeMappingTable(out io.Writer, list []sourcemap.Mapping, spans bool) {
	headers := []string{"GENERATED", "ORIGINAL", "SOURCE", "NAME"}
	if spans {
		headers = append(headers[:1], append([]string{"LAST COL"}, headers[1:]...)...)
	}
	rows := make([][]string, 0, len(list))
	for _, m := range list {
		row := []string{m.Generated.String(), "-", m.Source, m.Name}
		if m.HasOriginal() {
			row[1] = m.Original.String()
		}
		if spans {
			row = append(row[:1], append([]string{lastColumn(m.LastGeneratedColumn)}, row[1:]...)...)
		}
		rows = append(rows, row)
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	bold := color.New(color.Bold)
	fmt.Fprintln(out, bold.Sprint(formatRow(headers, widths)))
	for _, row := range rows {
		fmt.Fprintln(out, formatRow(row, widths))
	}
}

func formatRow(cells []string, widths []int) string {
	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteString("  ")
		}
		if i == len(cells)-1 {
			b.WriteString(cell)
			break
		}
		b.WriteString(runewidth.FillRight(cell, widths[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func lastColumn(col int) string {
	switch col {
	case sourcemap.ColumnEndOfLine:
		return "EOL"
	case sourcemap.ColumnUnknown:
		return "?"
	default:
		return strconv.Itoa(col)
	}
}
