package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"smap/internal/sourcemap"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <file>",
	Short: "Translate positions between generated code and sources",
	Long: `lookup answers one query against a map:

  --generated L:C                 original position for a generated one
  --source S --original L:C       generated position for an original one
  --source S --original L[:C] --all   every generated position for an original line

Lines are 1-based and columns 0-based.`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().String("generated", "", "generated position L:C")
	lookupCmd.Flags().String("source", "", "source URL as listed by `smap info` or `smap mappings`")
	lookupCmd.Flags().String("original", "", "original position L:C (L alone with --all)")
	lookupCmd.Flags().Bool("all", false, "list every generated position for the original line")
	lookupCmd.Flags().String("bias", "glb", "neighbour to use on a miss (glb|lub)")
	lookupCmd.Flags().Bool("json", false, "print results as JSON")
}

var errNotFound = errors.New("no mapping found")

type lookupQuery struct {
	generated string
	source    string
	original  string
	all       bool
	bias      sourcemap.Bias
	json      bool
}

func readLookupQuery(cmd *cobra.Command) (lookupQuery, error) {
	var q lookupQuery
	var err error
	flags := cmd.Flags()
	if q.generated, err = flags.GetString("generated"); err != nil {
		return q, fmt.Errorf("failed to get generated flag: %w", err)
	}
	if q.source, err = flags.GetString("source"); err != nil {
		return q, fmt.Errorf("failed to get source flag: %w", err)
	}
	if q.original, err = flags.GetString("original"); err != nil {
		return q, fmt.Errorf("failed to get original flag: %w", err)
	}
	if q.all, err = flags.GetBool("all"); err != nil {
		return q, fmt.Errorf("failed to get all flag: %w", err)
	}
	if q.json, err = flags.GetBool("json"); err != nil {
		return q, fmt.Errorf("failed to get json flag: %w", err)
	}
	biasStr, err := flags.GetString("bias")
	if err != nil {
		return q, fmt.Errorf("failed to get bias flag: %w", err)
	}
	if q.bias, err = sourcemap.ParseBias(biasStr); err != nil {
		return q, err
	}

	switch {
	case q.generated != "" && (q.source != "" || q.original != ""):
		return q, errors.New("--generated cannot be combined with --source or --original")
	case q.generated == "" && (q.source == "" || q.original == ""):
		return q, errors.New("either --generated or both --source and --original are required")
	case q.all && q.generated != "":
		return q, errors.New("--all works with --source and --original")
	}
	return q, nil
}

func runLookup(cmd *cobra.Command, args []string) error {
	q, err := readLookupQuery(cmd)
	if err != nil {
		return err
	}
	c, _, err := openConsumer(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer c.Close()

	results, err := lookup(c, q)
	if err != nil {
		return err
	}
	return writeLookup(cmd.OutOrStdout(), results, q.json)
}

func lookup(c sourcemap.Consumer, q lookupQuery) ([]sourcemap.Mapping, error) {
	if q.generated != "" {
		line, col, hasCol, err := parsePosition(q.generated)
		if err != nil {
			return nil, err
		}
		if !hasCol {
			return nil, fmt.Errorf("--generated needs a column: %q", q.generated)
		}
		m, ok, err := c.OriginalPositionFor(sourcemap.Position{Line: line, Column: col}, q.bias)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errNotFound
		}
		return []sourcemap.Mapping{m}, nil
	}

	line, col, hasCol, err := parsePosition(q.original)
	if err != nil {
		return nil, err
	}
	if q.all {
		list, err := c.AllGeneratedPositionsFor(q.source, line, col, hasCol)
		if err != nil {
			return nil, err
		}
		if len(list) == 0 {
			return nil, errNotFound
		}
		return list, nil
	}
	if !hasCol {
		return nil, fmt.Errorf("--original needs a column unless --all is set: %q", q.original)
	}
	m, ok, err := c.GeneratedPositionFor(q.source, sourcemap.Position{Line: line, Column: col}, q.bias)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errNotFound
	}
	return []sourcemap.Mapping{m}, nil
}

// parsePosition reads "L" or "L:C".
func parsePosition(s string) (line, col int, hasCol bool, err error) {
	lineStr, colStr, hasCol := strings.Cut(strings.TrimSpace(s), ":")
	line, err = strconv.Atoi(lineStr)
	if err != nil || line < 1 {
		return 0, 0, false, fmt.Errorf("invalid position %q: line must be a positive integer", s)
	}
	if !hasCol {
		return line, 0, false, nil
	}
	col, err = strconv.Atoi(colStr)
	if err != nil || col < 0 {
		return 0, 0, false, fmt.Errorf("invalid position %q: column must be a non-negative integer", s)
	}
	return line, col, true, nil
}

func writeLookup(out io.Writer, list []sourcemap.Mapping, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}
	dim := color.New(color.Faint)
	for _, m := range list {
		line := fmt.Sprintf("%s -> ", m.Generated)
		if m.HasOriginal() {
			line += fmt.Sprintf("%s:%s", m.Source, m.Original)
		} else {
			line += "-"
		}
		if m.Name != "" {
			line += " " + dim.Sprint(m.Name)
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}
