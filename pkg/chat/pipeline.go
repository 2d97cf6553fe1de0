package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cuemby/forge/pkg/events"
	"github.com/cuemby/forge/pkg/faults"
	"github.com/cuemby/forge/pkg/forgetypes"
	"github.com/cuemby/forge/pkg/log"
)

// DefaultHistorySize bounds the in-memory turn ring kept for prompt
// context injection.
const DefaultHistorySize = 10

// CostSink persists one provider-call CostEntry. *cost.Ledger satisfies
// this directly; kept as a narrow interface here so pkg/chat never
// imports pkg/cost.
type CostSink interface {
	Append(forgetypes.CostEntry) error
}

// Config wires a Pipeline's collaborators.
type Config struct {
	Provider    Provider
	Registry    *Registry
	ContextTTL  time.Duration
	RateLimiter *RateLimiter
	Audit       *AuditJournal
	Bus         *events.Bus
	CostSink    CostSink
	HistorySize int
}

// Pipeline owns at most one in-flight ChatTurn, a bounded turn history,
// and the rate-limit/context/tool-execution wiring around one Provider.
type Pipeline struct {
	provider    Provider
	registry    *Registry
	ctx         *cachedContext
	limiter     *RateLimiter
	audit       *AuditJournal
	bus         *events.Bus
	costSink    CostSink
	historySize int

	mu       sync.Mutex
	inFlight bool
	cancel   context.CancelFunc
	history  []forgetypes.ChatTurn
}

// NewPipeline builds a Pipeline. source provides DashboardContext
// snapshots; a nil source yields an always-empty context.
func NewPipeline(cfg Config, source ContextSource) *Pipeline {
	if source == nil {
		source = ContextSourceFunc(func() forgetypes.DashboardContext { return forgetypes.DashboardContext{} })
	}
	historySize := cfg.HistorySize
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = NewRateLimiter(0, 0)
	}
	return &Pipeline{
		provider:    cfg.Provider,
		registry:    cfg.Registry,
		ctx:         newCachedContext(source, cfg.ContextTTL),
		limiter:     limiter,
		audit:       cfg.Audit,
		bus:         cfg.Bus,
		costSink:    cfg.CostSink,
		historySize: historySize,
	}
}

// Busy reports whether a turn is currently in flight.
func (p *Pipeline) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight
}

// History returns a copy of the retained turn ring, oldest first.
func (p *Pipeline) History() []forgetypes.ChatTurn {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]forgetypes.ChatTurn, len(p.history))
	copy(out, p.history)
	return out
}

// Cancel aborts the in-flight turn, if any. The turn transitions to
// cancelled; any tool side effects already committed are not rolled
// back.
func (p *Pipeline) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
}

// Submit runs one ChatTurn for userText. It rejects with a busy error
// if a turn is already in flight, and with RateLimitExceededError if
// the sliding window is exhausted — in both cases no provider call is
// made.
func (p *Pipeline) Submit(ctx context.Context, userText string) (*forgetypes.ChatTurn, error) {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return nil, &faults.ProviderError{Message: "busy: a chat turn is already in flight"}
	}
	if ok, limit, waitSecs := p.limiter.Allow(time.Now()); !ok {
		p.mu.Unlock()
		return nil, &faults.RateLimitExceededError{Limit: limit, WaitSecs: waitSecs}
	}
	turnCtx, cancel := context.WithCancel(ctx)
	p.inFlight = true
	p.cancel = cancel
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight = false
		p.cancel = nil
		p.mu.Unlock()
		cancel()
	}()

	turn := forgetypes.ChatTurn{
		TurnID:      uuid.NewString(),
		SubmittedAt: time.Now(),
		UserText:    userText,
		State:       forgetypes.TurnPending,
	}

	dctx := p.ctx.get(time.Now())
	var tools []ToolSpec
	if p.registry != nil {
		tools = p.registry.Specs()
	}

	resp, err := p.provider.Process(turnCtx, renderPrompt(userText, p.History()), dctx, tools)
	if err != nil {
		if turnCtx.Err() != nil {
			turn.State = forgetypes.TurnCancelled
		} else {
			turn.State = forgetypes.TurnError
			turn.Error = err.Error()
		}
		p.finish(turn)
		return &turn, err
	}

	turn.ResponseText = resp.Text
	turn.FinishReason = resp.FinishReason
	turn.Usage = resp.Usage
	turn.CostUSD = resp.CostUSD
	turn.DurationMS = resp.DurationMS

	p.recordCost(turn, resp)

	for _, call := range resp.ToolCalls {
		if p.registry == nil {
			call.ResultStatus = forgetypes.ToolResultError
			call.ResultPayload = map[string]any{"error": "no tool registry configured"}
		} else {
			call = p.registry.Execute(turnCtx, call)
			for _, effect := range call.SideEffects {
				p.publish(events.EventChatTurn, map[string]any{"turn_id": turn.TurnID, "side_effect": effect})
			}
		}
		turn.ToolCalls = append(turn.ToolCalls, call)
	}

	turn.State = forgetypes.TurnComplete
	turn.Success = true
	p.finish(turn)
	return &turn, nil
}

func (p *Pipeline) finish(turn forgetypes.ChatTurn) {
	p.mu.Lock()
	p.history = append(p.history, turn)
	if len(p.history) > p.historySize {
		p.history = p.history[len(p.history)-p.historySize:]
	}
	p.mu.Unlock()

	if p.audit != nil {
		if err := p.audit.Append(turn); err != nil {
			log.WithComponent("chat").Warn().Err(err).Msg("audit append failed")
		}
	}
	p.publish(events.EventChatTurn, turn)
}

// recordCost turns one provider response into a CostEntry and hands it
// to the cost sink off the request path, matching the asynchronous
// update the cost ledger expects from provider responses. A response
// with no usage and no cost is not worth a write.
func (p *Pipeline) recordCost(turn forgetypes.ChatTurn, resp ProviderResponse) {
	if resp.Usage == (forgetypes.Usage{}) && resp.CostUSD == 0 {
		return
	}
	entry := forgetypes.CostEntry{
		Timestamp:         turn.SubmittedAt,
		Provider:          p.provider.Name(),
		Model:             resp.Model,
		InputTokens:       resp.Usage.InputTokens,
		OutputTokens:      resp.Usage.OutputTokens,
		CacheReadTokens:   resp.Usage.CacheReadTokens,
		CacheCreateTokens: resp.Usage.CacheCreateTokens,
		CostUSD:           resp.CostUSD,
		RequestMS:         resp.DurationMS,
	}

	p.publish(events.EventCostEntry, entry)

	if p.costSink == nil {
		return
	}
	go func() {
		if err := p.costSink.Append(entry); err != nil {
			log.WithComponent("chat").Warn().Err(err).Msg("cost entry append failed")
		}
	}()
}

func (p *Pipeline) publish(t events.EventType, payload any) {
	if p.bus == nil {
		return
	}
	p.bus.Publish(&events.Event{Type: t, Payload: payload})
}

// renderPrompt prepends a short transcript of prior turns to userText so
// the provider has conversational context beyond the DashboardContext
// snapshot.
func renderPrompt(userText string, history []forgetypes.ChatTurn) string {
	if len(history) == 0 {
		return userText
	}
	prompt := ""
	for _, turn := range history {
		prompt += fmt.Sprintf("User: %s\nAssistant: %s\n", turn.UserText, turn.ResponseText)
	}
	return prompt + "User: " + userText
}
