package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jordan/content-forge/internal/config"
	"github.com/jordan/content-forge/internal/ingestion"
	"github.com/jordan/content-forge/internal/llm"
	"github.com/jordan/content-forge/internal/observability"
	"github.com/jordan/content-forge/internal/pipeline"
	"github.com/jordan/content-forge/internal/prompts"
	"github.com/jordan/content-forge/internal/refinement"
	"github.com/jordan/content-forge/internal/research"
	"github.com/jordan/content-forge/internal/scoring"
	"github.com/jordan/content-forge/internal/store"
	"github.com/jordan/content-forge/internal/types"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run one generation job end-to-end",
	Long: `Runs the full generation pipeline for one submission: insight extraction -> evidence research -> drafting -> scoring -> refinement -> grounding validation -> variant output.

The product documentation is read from --docs (a file path) and may be HTML, markdown, or plain text.`,
	RunE: runJobCmd,
}

var (
	runDocsPath     string
	runExistingPath string
	runPrompt       string
	runPipelineKey  string
	runAssets       []string
	runVoiceIDs     []string
	runVoicesPath   string
	runModel        string
	runOutDir       string
	runGeminiKey    string
	runAnthropicKey string
	runDatabaseURL  string
	runVerbose      bool
)

func init() {
	runCommand.Flags().StringVarP(&runDocsPath, "docs", "d", "", "Path to product documentation file (required)")
	runCommand.Flags().StringVar(&runExistingPath, "existing", "", "Path to existing messaging file (required for straight-through)")
	runCommand.Flags().StringVarP(&runPrompt, "prompt", "p", "", "Extra direction passed through to generation")
	runCommand.Flags().StringVar(&runPipelineKey, "pipeline", types.PipelineStandard, "Generation strategy: standard, outside-in, adversarial, multi-perspective, straight-through")
	runCommand.Flags().StringSliceVarP(&runAssets, "assets", "a", []string{"landing-page"}, "Asset types to generate")
	runCommand.Flags().StringSliceVar(&runVoiceIDs, "voices", []string{"practitioner"}, "Voice profile IDs to generate for")
	runCommand.Flags().StringVar(&runVoicesPath, "voices-file", "", "Path to a YAML voice profile bundle (optional, defaults to built-in voices)")
	runCommand.Flags().StringVarP(&runModel, "model", "m", "", "Model override for generation calls")
	runCommand.Flags().StringVarP(&runOutDir, "out", "o", "", "Directory to write variant content files into (optional)")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")

	// API keys can be passed as flags, or read from env vars
	runCommand.Flags().StringVar(&runGeminiKey, "gemini-key", "", "Gemini API key (optional, defaults to GEMINI_API_KEY env var)")
	runCommand.Flags().StringVar(&runAnthropicKey, "anthropic-key", "", "Anthropic API key (optional, defaults to ANTHROPIC_API_KEY env var)")

	// Database URL for job and variant persistence
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	_ = runCommand.MarkFlagRequired("docs")

	rootCmd.AddCommand(runCommand)
}

func runJobCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	settings, err := config.Load()
	if err != nil {
		return err
	}
	if runGeminiKey != "" {
		settings.GeminiAPIKey = runGeminiKey
	}
	if runAnthropicKey != "" {
		settings.AnthropicAPIKey = runAnthropicKey
	}
	if runDatabaseURL != "" {
		settings.DatabaseURL = runDatabaseURL
	}
	if runVoicesPath != "" {
		settings.VoicesPath = runVoicesPath
	}
	if runVerbose {
		settings.Verbose = true
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	log := observability.NewLogger(os.Stderr, settings.Verbose)
	printer := observability.NewPrinter(os.Stdout)

	voices := config.DefaultVoices()
	if settings.VoicesPath != "" {
		voices, err = config.LoadVoices(settings.VoicesPath)
		if err != nil {
			return err
		}
	}

	docs, err := os.ReadFile(runDocsPath)
	if err != nil {
		return fmt.Errorf("failed to read docs file: %w", err)
	}
	existing := ""
	if runExistingPath != "" {
		raw, err := os.ReadFile(runExistingPath)
		if err != nil {
			return fmt.Errorf("failed to read existing messaging file: %w", err)
		}
		existing = string(raw)
	}

	telemetry := llm.NewTelemetry(observability.NewLogSink(log), 0)
	defer telemetry.Close()

	client, err := llm.NewDispatcher(ctx, llm.DefaultConfig(), settings.GeminiAPIKey, settings.AnthropicAPIKey, telemetry, log)
	if err != nil {
		return fmt.Errorf("failed to initialize model dispatcher: %w", err)
	}
	defer func() { _ = client.Close() }()

	var st store.Store = store.NewMemory()
	if settings.DatabaseURL != "" {
		pg, err := store.ConnectPostgres(ctx, settings.DatabaseURL)
		if err != nil {
			log.Warnf("failed to connect to database, continuing without persistence: %v", err)
		} else {
			st = pg
		}
	}
	defer st.Close()

	agent := research.NewGroundedAgent(client, 0, 0)
	scorer := scoring.NewScorer(client, scoring.NewPersonaCache(), log)

	engine := pipeline.NewEngine(pipeline.Deps{
		Client:    client,
		Store:     st,
		Bundler:   research.NewBundler(client, agent, log),
		Extractor: ingestion.NewExtractor(client, log),
		Scorer:    scorer,
		Refiner:   refinement.NewRefiner(client, scorer, log),
		Grounding: refinement.NewGroundingValidator(client, log),
		Banned:    prompts.NewBannedPhrases(client, prompts.NewCache(0), log),
		Voices:    voices,
		Log:       log,
	})

	sub := &types.Submission{
		ProductDocs:     string(docs),
		ExistingContent: existing,
		Prompt:          runPrompt,
		VoiceProfileIDs: runVoiceIDs,
		AssetTypes:      runAssets,
		Model:           runModel,
		Pipeline:        runPipelineKey,
	}

	job, variants, err := engine.Run(ctx, sub)
	if job != nil {
		printer.PrintJobSummary(job, variants)
	}
	if err != nil {
		return err
	}

	for _, v := range variants {
		voice := voices[v.VoiceID]
		label := v.AssetType + "/" + voice.Slug
		printer.PrintScores(label, &v.Scores, voice.Thresholds)
	}

	if runOutDir != "" {
		if err := writeVariants(runOutDir, voices, variants); err != nil {
			return err
		}
		fmt.Printf("Wrote %d variants to %s\n", len(variants), runOutDir)
	}

	return nil
}

func writeVariants(dir string, voices map[string]*types.VoiceProfile, variants []*types.Variant) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, v := range variants {
		name := fmt.Sprintf("%s-%s.md", v.AssetType, voices[v.VoiceID].Slug)
		path := filepath.Join(dir, strings.ReplaceAll(name, "/", "-"))
		if err := os.WriteFile(path, []byte(v.Content), 0o644); err != nil {
			return fmt.Errorf("failed to write variant %s: %w", path, err)
		}
	}
	return nil
}
