package cmd

import (
	"errors"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "resume-matcher"
	envPrefix = "RESUME_MATCHER"
)

type Config struct {
	Candidates []string       `mapstructure:"candidates"`
	Targets    []string       `mapstructure:"targets"`
	Format     string         `mapstructure:"format"`
	Workers    int            `mapstructure:"workers"`
	Encoder    *EncoderConfig `mapstructure:"encoder"`
}

type EncoderConfig struct {
	Kind      string           `mapstructure:"kind"`
	Lexical   *LexicalConfig   `mapstructure:"lexical"`
	Embedding *EmbeddingConfig `mapstructure:"embedding"`
}

type LexicalConfig struct {
	MinTokenLength int      `mapstructure:"min-token-length"`
	StopWords      []string `mapstructure:"stop-words"`
}

type EmbeddingConfig struct {
	Provider          string         `mapstructure:"provider"`
	MaxTokens         int            `mapstructure:"max-tokens"`
	BatchSize         int            `mapstructure:"batch-size"`
	RequestsPerSecond float64        `mapstructure:"requests-per-second"`
	Settings          map[string]any `mapstructure:"settings"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-matcher finds the best matching job description for every resume",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("format", "text")
	viper.SetDefault("workers", 1)
	viper.SetDefault("encoder.kind", encoderLexical)
	viper.SetDefault("encoder.embedding.provider", providerGemini)
	viper.SetDefault("encoder.embedding.max-tokens", 512)
}

func initConfig() {
	// Config needed only for match command. Version works without it.
	if matchCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	if err := viper.ReadInConfig(); err != nil {
		// Without an explicit --config everything can come from flags and env.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
