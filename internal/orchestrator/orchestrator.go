// Package orchestrator wires C1 through C12 into the tick loop and the
// external interfaces spec.md §4.13/§6 describe, the way
// intelligencedev-manifold's cmd/orchestrator ties Kafka consumption,
// workflow dispatch, and Redis dedupe into one run loop (see its
// internal/orchestrator/dedupe.go for the request-id-keyed bookkeeping
// this package's pending map mirrors).
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/cerebrumlux/cognition/internal/autoencoder"
	"github.com/cerebrumlux/cognition/internal/cache"
	"github.com/cerebrumlux/cognition/internal/compose"
	"github.com/cerebrumlux/cognition/internal/config"
	"github.com/cerebrumlux/cognition/internal/consensus"
	"github.com/cerebrumlux/cognition/internal/eventbus"
	"github.com/cerebrumlux/cognition/internal/goal"
	"github.com/cerebrumlux/cognition/internal/insight"
	"github.com/cerebrumlux/cognition/internal/intent"
	"github.com/cerebrumlux/cognition/internal/knowledge"
	"github.com/cerebrumlux/cognition/internal/llmadapter"
	"github.com/cerebrumlux/cognition/internal/logging"
	"github.com/cerebrumlux/cognition/internal/model"
	"github.com/cerebrumlux/cognition/internal/plan"
	"github.com/cerebrumlux/cognition/internal/prediction"
	"github.com/cerebrumlux/cognition/internal/qlearn"
	"github.com/cerebrumlux/cognition/internal/signal"
	"github.com/cerebrumlux/cognition/internal/state"
	"github.com/cerebrumlux/cognition/internal/vectorstore"
)

// pendingTurn records the (state, action) pair a chat turn produced so a
// later submit_feedback call has something to apply a Q-learning update
// to (spec §4.13: "await feedback and apply a C9 update").
type pendingTurn struct {
	stateKey string
	action   model.Action
}

// Orchestrator owns every cognition component and drives the tick loop.
// Exactly one goroutine calls Tick at a time; chat/feedback/ingest calls
// are safe to call concurrently with Tick and with each other.
type Orchestrator struct {
	log zerolog.Logger
	cfg config.Config

	buffer      *signal.Buffer
	ae          *autoencoder.Autoencoder
	classifier  *intent.Classifier
	stateInfer  *state.Inferrer
	predictor   *prediction.Engine
	insights    *insight.Engine
	arbiter     *goal.Arbiter
	planner     *plan.Planner
	qtable      *qlearn.Table
	knowledgeEngine *knowledge.Engine
	composer    *compose.Composer
	ledger      *consensus.Tree
	store       *vectorstore.Store
	bus         *eventbus.Bus
	respCache   *cache.ResponseCache
	llmSem      *semaphore.Weighted

	mu          sync.Mutex
	currentGoal model.Goal
	lastIntent  model.Intent
	currentPlan model.Plan
	pending     map[string]pendingTurn
}

// New assembles an Orchestrator from already-constructed components. The
// CLI's loadComponents (shared by every subcommand) opens the store, loads
// persisted autoencoder/prediction-graph state, and constructing the LLM
// adapter before calling this.
func New(
	cfg config.Config,
	log zerolog.Logger,
	ae *autoencoder.Autoencoder,
	predictor *prediction.Engine,
	store *vectorstore.Store,
	ledger *consensus.Tree,
	keys knowledge.KeyRing,
	llmAdapter llmadapter.Adapter,
) *Orchestrator {
	bus := eventbus.New()
	qt := qlearn.New()
	qt.SetHyperparameters(float32(cfg.QLearn.Alpha), float32(cfg.QLearn.Gamma), float32(cfg.QLearn.Epsilon))

	ke := knowledge.New(store, ledger, keys, cfg.Knowledge.AllowlistedSources, cfg.Knowledge.CorroborationCosine, cfg.Knowledge.StegoEntropyMax, cfg.Knowledge.IngestWorkers, log)

	maxConcurrent := int64(cfg.LLM.MaxConcurrent)
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	o := &Orchestrator{
		log:             log,
		cfg:             cfg,
		ae:              ae,
		classifier:      intent.New(),
		stateInfer:      state.New(),
		predictor:       predictor,
		insights:        insight.New(),
		arbiter:         goal.New(),
		planner:         plan.New(),
		qtable:          qt,
		knowledgeEngine: ke,
		composer:        compose.New(ke, llmAdapter, logging.Component(log, "compose"), cfg.LLM.MaxPromptTokens),
		ledger:          ledger,
		store:           store,
		bus:             bus,
		respCache:       cache.New(cfg.Cache, log),
		llmSem:          semaphore.NewWeighted(maxConcurrent),
		currentGoal:     model.GoalOptimizeProductivity,
		pending:         make(map[string]pendingTurn),
	}
	o.buffer = signal.New(cfg.SignalBuffer, ae, log)
	return o
}

// Events returns a subscription to the outbound event bus (spec §6).
func (o *Orchestrator) Events() (<-chan eventbus.Event, func()) {
	return o.bus.Subscribe()
}

// PushSignal feeds one atomic signal into C1 (spec §6 push_signal). C1's
// own bounded ring buffer absorbs back-pressure; this call never blocks.
func (o *Orchestrator) PushSignal(sig model.AtomicSignal) {
	o.buffer.AddSignal(sig)
}

// Tick drives C3 through C8 off the buffer's current sequence (C2 runs
// inside C1's Rebuild; C9 is updated by SubmitFeedback), the way spec
// §4.13 describes: "if a rebuild occurred, drive C2-C7 in order and
// push insights to C6 subscribers; dispatch goal changes to listeners."
// Callers (the CLI's run loop) invoke this on a fixed interval; C1's own
// AddSignal already triggers a Rebuild when its thresholds cross, so Tick
// only needs to read the resulting sequence and react to it.
func (o *Orchestrator) Tick() {
	sequence := o.buffer.CurrentSequence()

	o.mu.Lock()
	prevIntent := o.lastIntent
	o.mu.Unlock()

	cur := o.classifier.Analyze(sequence)
	o.predictor.Update(prevIntent, cur, sequence)
	st := o.stateInfer.Infer(cur, sequence)

	confidence := o.classifier.Score(cur, sequence)
	topScore := o.predictor.TopScore(cur, sequence)
	rmse := autoencoder.ReconstructionError(sequence.StatFeatures, o.ae.Reconstruct(sequence.StatFeatures))

	emitted := o.insights.Tick(rmse, confidence, topScore, sequence.BatteryPct, sequence.BatteryCharging)
	for _, ins := range emitted {
		o.bus.Publish(eventbus.Event{Kind: eventbus.KindLearningUpdate, Metric: ins.Kind.String(), Value: float64(ins.Urgency)})
	}

	o.mu.Lock()
	previousGoal := o.currentGoal
	o.mu.Unlock()

	g, changed := o.arbiter.Decide(emitted, sequence.BatteryPct, sequence.BatteryCharging, st, previousGoal)
	if changed {
		o.mu.Lock()
		o.currentGoal = g
		o.mu.Unlock()
		o.bus.Publish(eventbus.Event{Kind: eventbus.KindLearningUpdate, Metric: "goal_changed", Value: float64(g)})
	}

	p := o.planner.CreatePlan(cur, st, g, sequence)

	o.mu.Lock()
	o.lastIntent = cur
	o.currentPlan = p
	o.mu.Unlock()

	o.bus.Publish(eventbus.Event{Kind: eventbus.KindPlanReady, Payload: p})
}

// CurrentPlan returns the Plan produced by C8 on the most recent Tick,
// per spec §4.8/§4.13 — the synchronous counterpart to subscribing to
// KindPlanReady on the event bus.
func (o *Orchestrator) CurrentPlan() model.Plan {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.currentPlan
}

// TickLoop runs Tick on a fixed interval until ctx is canceled, the same
// producer/consumer goroutine idiom intelligencedev-manifold's
// orchestrator run loop uses for its Kafka consume loop.
func (o *Orchestrator) TickLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.Tick()
		}
	}
}

// SubmitUserText is spec §6's submit_user_text(text) -> request_id. It
// runs C12 against the current pipeline state, records the (state,
// action) pair for a later submit_feedback call, and publishes
// response_ready on the event bus.
func (o *Orchestrator) SubmitUserText(ctx context.Context, text string, queryEmbedding [model.EmbeddingDim]float32) (string, model.ChatResponse, error) {
	requestID := uuid.New().String()

	sequence := o.buffer.CurrentSequence()
	o.mu.Lock()
	cur := o.lastIntent
	g := o.currentGoal
	o.mu.Unlock()
	st := o.stateInfer.Infer(cur, sequence)

	if err := o.llmSem.Acquire(ctx, 1); err != nil {
		return requestID, model.ChatResponse{}, err
	}
	defer o.llmSem.Release(1)

	resp, err := o.generateCached(ctx, cur, st, g, sequence, queryEmbedding, text)
	if err != nil {
		return requestID, model.ChatResponse{}, err
	}

	stateKey := qlearn.StateKey(cur, st, sequence.Latent)
	action := o.qtable.Choose(stateKey, true)

	o.mu.Lock()
	o.pending[requestID] = pendingTurn{stateKey: stateKey, action: action}
	o.mu.Unlock()

	o.bus.Publish(eventbus.Event{Kind: eventbus.KindResponseReady, RequestID: requestID, Payload: resp})
	return requestID, resp, nil
}

// generateCached wraps Composer.Generate with the optional Redis response
// cache: a hit skips both the knowledge search and the LLM round trip.
func (o *Orchestrator) generateCached(ctx context.Context, cur model.Intent, st model.AbstractState, g model.Goal, sequence model.DynamicSequence, queryEmbedding [model.EmbeddingDim]float32, queryText string) (model.ChatResponse, error) {
	key := cache.Key(queryText, cur.String()+st.String())
	if cached, ok := o.respCache.Get(ctx, key); ok {
		return model.ChatResponse{Text: cached, Reasoning: "cache hit"}, nil
	}
	resp, err := o.composer.Generate(ctx, cur, st, g, sequence, queryEmbedding, queryText)
	if err != nil {
		return resp, err
	}
	o.respCache.Set(ctx, key, resp.Text)
	return resp, nil
}

// SubmitFeedback is spec §6's submit_feedback(request_id, positive). It
// looks up the (state, action) pair SubmitUserText recorded and applies
// one C9 Q-learning update with the mapped reward.
func (o *Orchestrator) SubmitFeedback(requestID string, positive bool) bool {
	o.mu.Lock()
	turn, ok := o.pending[requestID]
	if ok {
		delete(o.pending, requestID)
	}
	o.mu.Unlock()
	if !ok {
		return false
	}

	sequence := o.buffer.CurrentSequence()
	o.mu.Lock()
	cur := o.lastIntent
	o.mu.Unlock()
	st := o.stateInfer.Infer(cur, sequence)
	nextKey := qlearn.StateKey(cur, st, sequence.Latent)

	reward := qlearn.Reward(positive)
	o.qtable.Update(turn.stateKey, turn.action, reward, nextKey)
	o.bus.Publish(eventbus.Event{Kind: eventbus.KindQTableUpdated})
	return true
}

// IngestEnvelope is spec §6's ingest_envelope(capsule, signature,
// sender_id) -> IngestReport, delegating to C10 and publishing
// knowledge_base_updated on success.
func (o *Orchestrator) IngestEnvelope(env knowledge.Envelope) model.IngestReport {
	report := o.knowledgeEngine.Ingest(env)
	if report.Result == model.IngestSuccess {
		o.bus.Publish(eventbus.Event{Kind: eventbus.KindKnowledgeBaseUpdated, Payload: report.CapsuleID})
	}
	return report
}

// IngestBatch ingests envs on C10's bounded worker pool (spec §5:
// capsule-ingest workers are parallelizable across distinct capsules),
// publishing one knowledge_base_updated event per successful capsule.
func (o *Orchestrator) IngestBatch(ctx context.Context, envs []knowledge.Envelope) []model.IngestReport {
	reports := o.knowledgeEngine.IngestBatch(ctx, envs)
	for _, report := range reports {
		if report.Result == model.IngestSuccess {
			o.bus.Publish(eventbus.Event{Kind: eventbus.KindKnowledgeBaseUpdated, Payload: report.CapsuleID})
		}
	}
	return reports
}

// PersistAll flushes C2's weights, C5's transition graph, and C9's
// sparse Q-table to their on-disk paths (spec §6 "Persisted state
// layout"). The CLI's autosave timer and its "run" shutdown path both
// call this.
func (o *Orchestrator) PersistAll(autoencoderPath, predictionGraphPath string) error {
	if err := o.ae.Save(autoencoderPath); err != nil {
		return err
	}
	if err := o.predictor.Save(predictionGraphPath); err != nil {
		return err
	}
	for _, entry := range o.qtable.Snapshot() {
		blob, err := encodeQEntry(entry)
		if err != nil {
			return err
		}
		if err := o.store.PutQ(entry.StateKey, blob); err != nil {
			return err
		}
	}
	return nil
}

// LoadQTable restores C9's sparse Q-table from the durable store,
// mirroring PersistAll's write path on startup.
func (o *Orchestrator) LoadQTable() error {
	var entries []model.SparseQEntry
	for _, key := range o.store.IterateQKeys() {
		blob, ok := o.store.GetQ(key)
		if !ok {
			continue
		}
		entry, err := decodeQEntry(key, blob)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}
	o.qtable.Restore(entries)
	return nil
}

// QTableSnapshot exposes C9's current sparse Q-table rows, the CLI's
// dump-q subcommand entry point.
func (o *Orchestrator) QTableSnapshot() []model.SparseQEntry {
	return o.qtable.Snapshot()
}

// VerifyConsensus reports whether the audit ledger's recomputed root
// matches want, the CLI's verify-consensus subcommand entry point.
func (o *Orchestrator) VerifyConsensus(want string) bool {
	return o.ledger.Verify(want)
}

// ConsensusRoot returns the ledger's current root hash.
func (o *Orchestrator) ConsensusRoot() string {
	return o.ledger.Root()
}

// Close releases the orchestrator's own resources (the response cache's
// Redis client); the CLI owns the store/ledger/adapter lifetimes it
// passed into New.
func (o *Orchestrator) Close() error {
	return o.respCache.Close()
}
