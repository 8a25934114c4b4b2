package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "refscout",
	Short: "Refscout - resolve bibliographic references from PDFs",
	Long: `Refscout reads the bibliography of a PDF, parses each reference with
an LLM, resolves it against scholarly catalogs (OpenAlex, with Semantic
Scholar as fallback) and writes a tabular xlsx report with one row per
reference: title, year, first/last authors, affiliations and emails.

References that cannot be resolved are never dropped; their rows carry
the parsed data and a note explaining what happened.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("refscout v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.refscout/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// configKeys lists every setting a config file or REFSCOUT_* environment
// variable can override. Nested keys must be bound explicitly or viper
// never resolves their env form (REFSCOUT_MATCH_ACCEPT_THRESHOLD).
var configKeys = []string{
	"llm.provider", "llm.model", "llm.base_url", "llm.timeout", "llm.max_tokens",
	"openalex.base_url", "openalex.mailto", "openalex.per_page",
	"semanticscholar.base_url", "semanticscholar.per_page",
	"http.timeout",
	"retry.max_attempts", "retry.base_delay",
	"ratelimit.requests_per_second", "ratelimit.burst",
	"match.accept_threshold", "match.reject_floor", "match.year_tolerance",
	"concurrency.workers",
	"cache.enabled", "cache.dir", "cache.memory_ttl", "cache.disk_ttl",
	"output.verbose",
}

// initConfig reads in the config file and matching environment variables
func initConfig() {
	// Pick up API keys from a local .env if present
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.refscout")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match REFSCOUT_*
	viper.SetEnvPrefix("REFSCOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range configKeys {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}
