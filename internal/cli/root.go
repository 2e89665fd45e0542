package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/subtext-labs/subtext/internal/model"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "subtext",
	Short: "Subtext - structured interpretation of human communication",
	Long: `Subtext turns a message (text and/or a screenshot, plus optional
context) into a structured interpretation: inferred intent, emotional
tone, hidden subtext, risk signals, and candidate response strategies.

The interpretation comes from a generative model and is inherently
uncertain. Subtext validates every model response against a declared
schema and rewrites absolute or prescriptive language before anything
is returned, but it cannot verify that an implied meaning is correct.

Subtext offers readings, not verdicts.`,
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
	Long:  `Display the version number and build information for Subtext.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("subtext v0.2.1")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.subtext/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.subtext")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match SUBTEXT_*
	viper.SetEnvPrefix("SUBTEXT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig builds the runtime configuration: defaults, then config
// file / environment overrides, then the provider credential from its
// conventional variable. The credential is read exactly once here and
// never touched again for the process lifetime.
func loadConfig() model.Config {
	cfg := model.DefaultConfig()

	setString := func(key string, dst *string) {
		if viper.IsSet(key) {
			*dst = viper.GetString(key)
		}
	}
	setString("server.addr", &cfg.Server.Addr)
	setString("llm.provider", &cfg.LLM.Provider)
	setString("llm.model", &cfg.LLM.Model)
	setString("llm.base_url", &cfg.LLM.BaseURL)

	if viper.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = viper.GetStringSlice("server.allowed_origins")
	}
	if viper.IsSet("server.release_mode") {
		cfg.Server.ReleaseMode = viper.GetBool("server.release_mode")
	}
	if viper.IsSet("llm.timeout") {
		cfg.LLM.Timeout = viper.GetDuration("llm.timeout")
	}
	if viper.IsSet("llm.temperature") {
		cfg.LLM.Temperature = float32(viper.GetFloat64("llm.temperature"))
	}
	if viper.IsSet("llm.max_tokens") {
		cfg.LLM.MaxTokens = viper.GetInt("llm.max_tokens")
	}
	if viper.IsSet("llm.requests_per_minute") {
		cfg.LLM.RequestsPerMinute = viper.GetFloat64("llm.requests_per_minute")
	}
	if viper.IsSet("limits.max_text_chars") {
		cfg.Limits.MaxTextChars = viper.GetInt("limits.max_text_chars")
	}
	if viper.IsSet("limits.client_requests_per_minute") {
		cfg.Limits.ClientRequestsPerMinute = viper.GetFloat64("limits.client_requests_per_minute")
	}

	cfg.LLM.APIKey = apiKeyForProvider(cfg.LLM.Provider)
	return cfg
}

func apiKeyForProvider(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "gemini", "google":
		return os.Getenv("GEMINI_API_KEY")
	default:
		// Ollama and friends run locally without credentials
		return ""
	}
}
