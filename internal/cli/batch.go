package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/refscout/refscout/internal/pipeline"
)

var (
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Extract references from multiple PDFs listed in a file",
	Long: `Batch processes multiple documents:
- Read PDF paths or URLs from the input file (one per line)
- Run the full extraction pipeline for each document
- Write one xlsx report per document into the output directory

A failing document does not stop the batch; its failure is reported and
processing continues.

Example:
  refscout batch papers.txt
  refscout batch papers.txt --output-dir ./reports --concurrency 8`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./refscout-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", time.Hour, "total timeout for batch processing")
	batchCmd.Flags().IntVar(&maxRefs, "max-refs", 0, "process at most N references per document (0 = all)")
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 4, "number of concurrent reference workers per document")
	batchCmd.Flags().StringVar(&mailto, "mailto", "", "contact email for the OpenAlex polite pool")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable catalog response cache")
	batchCmd.Flags().BoolVar(&noLLM, "no-llm", false, "skip LLM parsing (raw-text fallbacks only)")
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	sources, err := readSources(args[0])
	if err != nil {
		return fmt.Errorf("read input file: %w", err)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no documents listed in %s", args[0])
	}

	cfg, err := buildConfig(cmd.Flags())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Processing %d documents into %s\n\n", len(sources), outputDir)

	p := pipeline.NewPipeline(cfg)

	succeeded := 0
	for _, source := range sources {
		target := filepath.Join(outputDir, reportName(source))

		result, err := p.Run(ctx, source, target, maxRefs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", source, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		succeeded++
		fmt.Fprintf(os.Stderr, "✓ %s: %d/%d references resolved → %s\n",
			source, result.Matched, result.Total, target)
	}

	fmt.Fprintf(os.Stderr, "\nBatch complete: %d/%d documents succeeded\n", succeeded, len(sources))

	if succeeded == 0 {
		return fmt.Errorf("all %d documents failed", len(sources))
	}
	return nil
}

// readSources reads document paths or URLs from a file, one per line,
// skipping blanks, comments and duplicates.
func readSources(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var sources []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			sources = append(sources, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return sources, nil
}

// reportName derives an xlsx file name from a document path or URL
func reportName(source string) string {
	base := filepath.Base(strings.TrimRight(source, "/"))
	if idx := strings.IndexAny(base, "?#"); idx >= 0 {
		base = base[:idx]
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		base = "document"
	}

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	name := b.String()
	if len(name) > 100 {
		name = name[:100]
	}
	return name + ".xlsx"
}
