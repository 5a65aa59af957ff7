package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/ai/gemini"
	"github.com/spigell/resume-matcher/internal/ai/openai"
	"github.com/spigell/resume-matcher/internal/documents"
	"github.com/spigell/resume-matcher/internal/encoder"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/matching"
	"github.com/spigell/resume-matcher/internal/report"
	"github.com/spigell/resume-matcher/internal/secrets"
	"github.com/spigell/resume-matcher/internal/utils"

	"github.com/manifoldco/promptui"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptShowTable  = "Show table"
	PromptShowJSON   = "Show JSON"
	PromptDumpToFile = "Dump matches to file"
	PromptExit       = "Exit"

	encoderLexical   = "lexical"
	encoderEmbedding = "embedding"
	providerGemini   = "gemini"
	providerOpenAI   = "openai"

	previewLength = 300
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptShowTable, PromptShowJSON, PromptDumpToFile, PromptExit},
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Find the best matching job description for every resume",
	Run: func(cmd *cobra.Command, _ []string) {
		match(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringSliceP("candidates", "c", nil, "resume files or directories (repeatable)")
	matchCmd.Flags().StringSliceP("targets", "t", nil, "job description files or directories (repeatable)")
	matchCmd.Flags().StringP("encoder", "e", "", "text encoder: lexical or embedding")
	matchCmd.Flags().StringP("format", "o", "", "output format: "+strings.Join(report.Formats(), ", "))
	matchCmd.Flags().IntP("workers", "w", 0, "number of concurrent encoding workers")
	matchCmd.Flags().BoolP("yes", "y", false, "print the results and exit without the interactive menu")

	viper.BindPFlag("candidates", matchCmd.Flags().Lookup("candidates"))
	viper.BindPFlag("targets", matchCmd.Flags().Lookup("targets"))
	viper.BindPFlag("encoder.kind", matchCmd.Flags().Lookup("encoder"))
	viper.BindPFlag("format", matchCmd.Flags().Lookup("format"))
	viper.BindPFlag("workers", matchCmd.Flags().Lookup("workers"))
}

// match is the main command for the cli.
func match(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil {
		logger.Fatal("config is required")
	}

	logger.Info("starting the resume-matcher", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redactedConfig(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	resumes, err := loadDocuments("Resume", config.Candidates, logger)
	if err != nil {
		logger.Fatal("loading resumes", zap.Error(err))
	}

	jobs, err := loadDocuments("Job", config.Targets, logger)
	if err != nil {
		logger.Fatal("loading job descriptions", zap.Error(err))
	}

	enc, err := newEncoder(ctx, config.Encoder, logger)
	if err != nil {
		logger.Fatal("building the encoder", zap.Error(err))
	}

	engine := matching.New(enc,
		matching.WithWorkers(config.Workers),
		matching.WithLogger(logger),
	)

	results, err := engine.FindBestMatches(ctx, documents.Texts(resumes), documents.Texts(jobs))
	if err != nil {
		if errors.Is(err, matching.ErrEmptyCorpus) {
			logger.Fatal("nothing to match",
				zap.Error(err),
				zap.String("hint", "Please upload at least one job description and one resume."),
			)
		}
		logger.Fatal("matching failed", zap.Error(err))
	}

	if err := report.Render(cmd.OutOrStdout(), config.Format, results); err != nil {
		logger.Fatal("rendering results", zap.Error(err))
	}

	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(cmd, action, logger, results); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(cmd *cobra.Command, action string, logger *zap.Logger, results *matching.ResultSet) error {
	switch action {
	case PromptShowTable:
		return report.Render(cmd.OutOrStdout(), report.FormatTable, results)
	case PromptShowJSON:
		return report.Render(cmd.OutOrStdout(), report.FormatJSON, results)
	case PromptDumpToFile:
		filename, err := report.DumpToTmpFile(results)
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// loadDocuments reads the documents and logs a short preview of every one.
func loadDocuments(label string, paths []string, logger *zap.Logger) ([]documents.Document, error) {
	docs, err := documents.Load(paths)
	if err != nil {
		return nil, err
	}

	for _, doc := range docs {
		logger.Info(fmt.Sprintf("%s %d", label, doc.Index+1),
			zap.String("path", doc.Path),
			zap.String("preview", utils.Preview(doc.Text, previewLength)),
		)
	}

	logger.Info("documents loaded", zap.String("kind", label), zap.Int("count", len(docs)))
	return docs, nil
}

func newEncoder(ctx context.Context, cfg *EncoderConfig, log *zap.Logger) (encoder.Encoder, error) {
	if cfg == nil {
		cfg = &EncoderConfig{}
	}

	kind := strings.TrimSpace(strings.ToLower(cfg.Kind))
	switch kind {
	case "", encoderLexical:
		opts := []encoder.LexicalOption{
			encoder.WithLexicalLogger(logger.WithEncoder(log, encoderLexical)),
		}
		if cfg.Lexical != nil {
			opts = append(opts, encoder.WithMinTokenLength(cfg.Lexical.MinTokenLength))
			if len(cfg.Lexical.StopWords) > 0 {
				opts = append(opts, encoder.WithStopWords(cfg.Lexical.StopWords))
			}
		}
		return encoder.NewLexical(opts...), nil
	case encoderEmbedding:
		emb := cfg.Embedding
		if emb == nil {
			emb = &EmbeddingConfig{}
		}

		provider, err := newEmbedder(ctx, emb, log)
		if err != nil {
			return nil, err
		}

		return encoder.NewEmbedding(provider, &encoder.EmbeddingConfig{
			MaxTokens:         emb.MaxTokens,
			BatchSize:         emb.BatchSize,
			RequestsPerSecond: emb.RequestsPerSecond,
		}, log), nil
	default:
		return nil, fmt.Errorf("unsupported encoder: %s", cfg.Kind)
	}
}

func newEmbedder(ctx context.Context, cfg *EmbeddingConfig, logger *zap.Logger) (ai.Embedder, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	switch provider {
	case "", providerGemini:
		var settings gemini.Config
		if err := decodeSettings(cfg.Settings, &settings); err != nil {
			return nil, fmt.Errorf("decoding gemini settings: %w", err)
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			File:  settings.APIKeyFile,
			Value: settings.APIKey,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set encoder.embedding.settings.api-key-file or GEMINI_API_KEY)", err)
		}

		embedder, err := gemini.NewEmbedder(ctx, apiKey, &settings, logger)
		if err != nil {
			return nil, err
		}
		return embedder, nil
	case providerOpenAI:
		var settings openai.Config
		if err := decodeSettings(cfg.Settings, &settings); err != nil {
			return nil, fmt.Errorf("decoding openai settings: %w", err)
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			File:  settings.APIKeyFile,
			Value: settings.APIKey,
			Env:   "OPENAI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set encoder.embedding.settings.api-key-file or OPENAI_API_KEY)", err)
		}

		embedder, err := openai.NewEmbedder(apiKey, &settings, logger)
		if err != nil {
			return nil, err
		}
		return embedder, nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// decodeSettings maps provider specific settings onto the provider config.
func decodeSettings(settings map[string]any, out any) error {
	if len(settings) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}

	return decoder.Decode(settings)
}

// redactedConfig hides inline api keys before the config is logged.
func redactedConfig(config *Config) *Config {
	if config.Encoder == nil || config.Encoder.Embedding == nil {
		return config
	}

	clone := *config
	encoderCfg := *config.Encoder
	embeddingCfg := *config.Encoder.Embedding

	settings := make(map[string]any, len(embeddingCfg.Settings))
	for k, v := range embeddingCfg.Settings {
		if strings.EqualFold(k, "api-key") {
			v = "***"
		}
		settings[k] = v
	}
	embeddingCfg.Settings = settings

	encoderCfg.Embedding = &embeddingCfg
	clone.Encoder = &encoderCfg
	return &clone
}
