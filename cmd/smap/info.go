package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"smap/internal/loader"
)

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Summarize a source map without decoding its mappings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, err := cmd.Flags().GetBool("json")
		if err != nil {
			return fmt.Errorf("failed to get json flag: %w", err)
		}
		doc, err := loader.Load(appFs, args[0])
		if err != nil {
			return err
		}
		summary, err := loader.Sniff(doc.Raw)
		if err != nil {
			return fmt.Errorf("%s: %w", doc.MapURL, err)
		}
		if asJSON {
			return writeInfoJSON(cmd.OutOrStdout(), doc, summary)
		}
		writeInfo(cmd.OutOrStdout(), doc, summary)
		return nil
	},
}

func init() {
	infoCmd.Flags().Bool("json", false, "print the summary as JSON")
}

type infoJSON struct {
	Path   string         `json:"path"`
	Map    string         `json:"map"`
	Inline bool           `json:"inline"`
	SHA256 string         `json:"sha256"`
	Info   loader.Summary `json:"summary"`
}

func writeInfoJSON(out io.Writer, doc *loader.Document, s loader.Summary) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(infoJSON{
		Path:   doc.Path,
		Map:    doc.MapURL,
		Inline: doc.Inline,
		SHA256: fmt.Sprintf("%x", doc.Hash),
		Info:   s,
	})
}

func writeInfo(out io.Writer, doc *loader.Document, s loader.Summary) {
	key := color.New(color.FgCyan)
	row := func(name string, value any) {
		fmt.Fprintf(out, "%s %v\n", key.Sprintf("%-16s", name+":"), value)
	}
	row("map", doc.MapURL)
	if doc.Inline {
		row("inline", true)
	}
	row("version", s.Version)
	if s.File != "" {
		row("file", s.File)
	}
	if s.SourceRoot != "" {
		row("sourceRoot", s.SourceRoot)
	}
	if s.Indexed {
		row("sections", s.Sections)
	}
	row("sources", s.Sources)
	row("sourcesContent", s.SourcesContent)
	row("names", s.Names)
	row("generated lines", s.Lines)
	row("mappings bytes", s.MappingsBytes)
	row("sha256", fmt.Sprintf("%x", doc.Hash))
}
