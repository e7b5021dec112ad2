package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"smap/internal/sourcemap"
)

var generateCmd = &cobra.Command{
	Use:   "generate <file>",
	Short: "Re-serialize a map through the consumer and generator",
	Long: `generate reads a map (flat or indexed), walks its mappings and writes a new flat
map. Indexed maps come out flattened; sources keep their content.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("source-root", "", "sourceRoot of the output; sources are made relative to it")
	generateCmd.Flags().String("file", "", "override the file field")
	generateCmd.Flags().Bool("drop-content", false, "omit sourcesContent")
	generateCmd.Flags().StringP("output", "o", "", "write to this path instead of stdout")
	generateCmd.Flags().Bool("indent", false, "indent the JSON output")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	root, err := flags.GetString("source-root")
	if err != nil {
		return fmt.Errorf("failed to get source-root flag: %w", err)
	}
	file, err := flags.GetString("file")
	if err != nil {
		return fmt.Errorf("failed to get file flag: %w", err)
	}
	dropContent, err := flags.GetBool("drop-content")
	if err != nil {
		return fmt.Errorf("failed to get drop-content flag: %w", err)
	}
	output, err := flags.GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	indent, err := flags.GetBool("indent")
	if err != nil {
		return fmt.Errorf("failed to get indent flag: %w", err)
	}

	c, _, err := openConsumer(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer c.Close()

	idx := current.timer.Begin("generate")
	if !flags.Changed("source-root") {
		root = c.SourceRoot()
	}
	g, err := sourcemap.NewGeneratorWithRoot(c, root)
	if err != nil {
		return err
	}
	raw, err := g.RawMap()
	if err != nil {
		return err
	}
	if file != "" {
		raw.File = file
	}
	if dropContent {
		raw.SourcesContent = nil
	}
	data, err := encodeMap(raw, indent)
	current.timer.End(idx, fmt.Sprintf("%d bytes", len(data)))
	if err != nil {
		return err
	}

	if output == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := afero.WriteFile(appFs, output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	logger.WithField("path", output).Info("map written")
	return nil
}

func encodeMap(raw *sourcemap.RawMap, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
