package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/refscout/refscout/internal/model"
	"github.com/refscout/refscout/internal/pipeline"
)

var (
	outPath     string
	maxRefs     int
	concurrency int
	timeout     time.Duration
	mailto      string
	noCache     bool
	noLLM       bool
	llmProvider string
	llmModel    string
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <pdf-or-url>",
	Short: "Extract and resolve the references of a single PDF",
	Long: `Extract reads the bibliography of a PDF (local path or URL) and
resolves every reference:
- Split the reference section into individual entries
- Parse title, year, authors and emails with an LLM
- Look each entry up in OpenAlex, falling back to Semantic Scholar
- Select the best catalog match, or mark the entry unresolved
- Write one xlsx row per reference, in document order

Example:
  refscout extract paper.pdf
  refscout extract paper.pdf --out refs.xlsx --max-refs 20
  refscout extract https://example.org/paper.pdf --mailto you@example.org
  refscout extract paper.pdf --llm-provider ollama --llm-model llama3`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&outPath, "out", "refs.xlsx", "output xlsx path")
	extractCmd.Flags().IntVar(&maxRefs, "max-refs", 0, "process at most N references (0 = all)")
	extractCmd.Flags().IntVar(&concurrency, "concurrency", 4, "number of concurrent reference workers")
	extractCmd.Flags().DurationVar(&timeout, "timeout", 15*time.Minute, "overall run timeout")
	extractCmd.Flags().StringVar(&mailto, "mailto", "", "contact email for the OpenAlex polite pool")
	extractCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable catalog response cache")
	extractCmd.Flags().BoolVar(&noLLM, "no-llm", false, "skip LLM parsing (raw-text fallbacks only)")
	extractCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	extractCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runExtract(cmd *cobra.Command, args []string) error {
	source := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := buildConfig(cmd.Flags())
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Extracting: %s\n", source)
		fmt.Fprintf(os.Stderr, "Output: %s\n", outPath)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	p := pipeline.NewPipeline(cfg)

	result, err := p.Run(ctx, source, outPath, maxRefs)
	if err != nil {
		return fmt.Errorf("extract failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Resolved %d/%d references in %v\n",
		result.Matched, result.Total, result.Duration.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "✓ Report written to %s\n", result.OutputPath)

	return nil
}

// buildConfig assembles the run configuration: built-in defaults, then
// whatever the config file and REFSCOUT_* environment loaded into viper,
// then explicit flags. Fatal setup problems (missing API key for a
// selected provider) surface here, before any work starts.
func buildConfig(flags *pflag.FlagSet) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if flags.Changed("concurrency") {
		cfg.Concurrency.Workers = concurrency
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if verbose {
		cfg.Output.Verbose = true
	}

	if mailto != "" {
		cfg.OpenAlex.Mailto = mailto
	} else if env := os.Getenv("OPENALEX_MAILTO"); env != "" && cfg.OpenAlex.Mailto == "" {
		cfg.OpenAlex.Mailto = env
	}
	cfg.S2.APIKey = os.Getenv("S2_API_KEY")

	if noLLM {
		cfg.LLM.Provider = ""
		return cfg, nil
	}

	if flags.Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}

	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (use openai or ollama, or --no-llm)", cfg.LLM.Provider)
	}

	return cfg, nil
}
