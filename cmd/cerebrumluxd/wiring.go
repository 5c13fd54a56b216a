package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/cerebrumlux/cognition/internal/autoencoder"
	"github.com/cerebrumlux/cognition/internal/config"
	"github.com/cerebrumlux/cognition/internal/consensus"
	"github.com/cerebrumlux/cognition/internal/knowledge"
	"github.com/cerebrumlux/cognition/internal/llmadapter"
	"github.com/cerebrumlux/cognition/internal/logging"
	"github.com/cerebrumlux/cognition/internal/orchestrator"
	"github.com/cerebrumlux/cognition/internal/prediction"
	"github.com/cerebrumlux/cognition/internal/vectorstore"
)

// autoencoderSeed seeds C2's weight initialization. Fixed rather than
// time-derived so a fresh store's first run is reproducible.
const autoencoderSeed int64 = 42

func statePaths(cfg config.Config) (storePath, autoencoderPath, predictionGraphPath, auditLogPath, keysPath string) {
	dir := cfg.Store.Dir
	return filepath.Join(dir, "vectors.db"),
		filepath.Join(dir, "autoencoder.bin"),
		filepath.Join(dir, "intent_graph.txt"),
		filepath.Join(dir, "audit.log"),
		filepath.Join(dir, "keys.json")
}

// components bundles everything loadComponents wires up so
// subcommands can use only the pieces they need and defer-close the rest.
type components struct {
	cfg    config.Config
	log    zerolog.Logger
	orch   *orchestrator.Orchestrator
	ae     *autoencoder.Autoencoder
	pred   *prediction.Engine
	store  *vectorstore.Store
	ledger *consensus.Tree

	autoencoderPath     string
	predictionGraphPath string
	auditLogPath        string
}

func loadComponents() (*components, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitConfigError)
	}
	log := logging.Init(cfg.LogPath, cfg.LogLevel)

	if err := os.MkdirAll(cfg.Store.Dir, 0o755); err != nil {
		return nil, err
	}

	storePath, aePath, predPath, auditPath, keysPath := statePaths(cfg)

	store, err := vectorstore.Open(storePath, logging.Component(log, "vectorstore"))
	if err != nil {
		return nil, err
	}

	ae := autoencoder.New(autoencoderSeed)
	ae.SetRMSEThreshold(cfg.Autoencoder.ReconstructionErrMax)
	reinit, err := ae.Load(aePath)
	if err != nil {
		store.Close()
		return nil, err
	}
	if reinit {
		log.Warn().Str("path", aePath).Msg("autoencoder file does not match the network layout; starting from fresh weights")
	}

	pred := prediction.New(logging.Component(log, "prediction"))
	if err := pred.Load(predPath); err != nil {
		store.Close()
		return nil, err
	}

	ledger, err := consensus.LoadFile(auditPath)
	if err != nil {
		store.Close()
		return nil, err
	}

	keys, err := knowledge.LoadKeyRingFile(keysPath)
	if err != nil {
		store.Close()
		return nil, err
	}

	adapter, err := buildLLMAdapter(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	orch := orchestrator.New(cfg, logging.Component(log, "orchestrator"), ae, pred, store, ledger, keys, adapter)
	if err := orch.LoadQTable(); err != nil {
		store.Close()
		return nil, err
	}

	return &components{
		cfg:                 cfg,
		log:                 log,
		orch:                orch,
		ae:                  ae,
		pred:                pred,
		store:               store,
		ledger:              ledger,
		autoencoderPath:     aePath,
		predictionGraphPath: predPath,
		auditLogPath:        auditPath,
	}, nil
}

func (c *components) persist() error {
	if err := c.orch.PersistAll(c.autoencoderPath, c.predictionGraphPath); err != nil {
		return err
	}
	return c.ledger.SaveFile(c.auditLogPath)
}

func (c *components) close() {
	c.orch.Close()
	c.store.Close()
}

// buildLLMAdapter picks Anthropic, OpenAI, or Gemini per cfg.LLM.Provider,
// and pairs whichever with the generic HTTP embedding adapter via
// Composite since none of the three first-party SDKs exposes an
// embeddings call this module needs (spec §6's outbound infer()/embed()
// contract).
func buildLLMAdapter(cfg config.Config) (llmadapter.Adapter, error) {
	httpClient := &http.Client{Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second}

	var inferrer llmadapter.Adapter
	switch cfg.LLM.Provider {
	case "openai":
		inferrer = llmadapter.NewOpenAIAdapter(cfg.LLM, httpClient)
	case "gemini":
		gemini, err := llmadapter.NewGeminiAdapter(context.Background(), cfg.LLM, httpClient)
		if err != nil {
			return nil, err
		}
		inferrer = gemini
	default:
		inferrer = llmadapter.NewAnthropicAdapter(cfg.LLM, httpClient)
	}
	embedder := llmadapter.NewHTTPEmbedAdapter(cfg.LLM, httpClient)
	return llmadapter.Composite{Inferrer: inferrer, Embedder: embedder}, nil
}
