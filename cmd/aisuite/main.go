// aisuite - command line client for the go-aisuite Gemini adapter
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/inercia/go-aisuite/internal/config"
	"github.com/inercia/go-aisuite/pkg/llm"
)

var (
	cfgFile     string
	apiKey      string
	model       string
	verbose     bool
	temperature float32
	maxTokens   int
	system      string
	jsonOutput  bool
	attachPaths []string
)

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "aisuite",
	Short: "Talk to Gemini models through the go-aisuite adapter",
	Long: `aisuite sends chat completions and content generation requests to
Google Gemini, uploads files and lists the available models.

The API key is taken from --api-key, the config file or GEMINI_API_KEY
(a .env file in the working directory is loaded first).

Example:
  aisuite chat "What is the capital of France?"
  aisuite generate "Summarize this document" --attach report.pdf
  aisuite models`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./aisuite.yaml or ~/.config/aisuite/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (default: $GEMINI_API_KEY)")
	rootCmd.PersistentFlags().StringVarP(&model, "model", "m", "", "model name (default: "+llm.DefaultGeminiModel+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	for _, cmd := range []*cobra.Command{chatCmd, generateCmd} {
		cmd.Flags().Float32Var(&temperature, "temperature", 0, "sampling temperature")
		cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "maximum number of output tokens")
		cmd.Flags().StringVar(&system, "system", "", "system instruction")
		cmd.Flags().BoolVar(&jsonOutput, "json", false, "ask for a JSON response")
	}
	generateCmd.Flags().StringSliceVar(&attachPaths, "attach", nil, "upload and attach a file (repeatable)")

	rootCmd.AddCommand(chatCmd, generateCmd, uploadCmd, modelsCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.LoadDefault()
}

// clientConfig merges the config file with the command line flags, flags winning
func clientConfig(cfg *config.Config) llm.ClientConfig {
	cc := cfg.ClientConfig()
	if apiKey != "" {
		cc.APIKey = apiKey
	}
	if model != "" {
		cc.Model = model
	}
	cc.Logger = newLogger()
	return cc
}

// generationOptions merges the config file defaults with the flags set on cmd
func generationOptions(cmd *cobra.Command, cfg *config.Config) llm.GenerationOptions {
	opts := cfg.GenerationOptions()
	if cmd.Flags().Changed("temperature") {
		t := temperature
		opts.Temperature = &t
	}
	if cmd.Flags().Changed("max-tokens") {
		n := maxTokens
		opts.MaxTokens = &n
	}
	if system != "" {
		opts.SystemInstruction = system
	}
	if jsonOutput {
		opts.ResponseFormat = llm.NewJSONResponseFormat()
	}
	return opts
}
