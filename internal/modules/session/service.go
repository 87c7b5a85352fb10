// README: Session manager: conversational turns, intent handling, plan lifecycle.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"wayfarer/internal/ai"
	"wayfarer/internal/intent"
	"wayfarer/internal/maps"
	"wayfarer/internal/types"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrConflict     = errors.New("session already exists")
	ErrNoPlan       = errors.New("session has no trip plan")
	ErrInvalidState = errors.New("invalid session state transition")
	ErrBadRequest   = errors.New("bad request")
)

const (
	aiReplyTimeout   = 10 * time.Second
	promptTurnWindow = 6
	maxSearchResults = 3
)

// SessionStore is what the Manager needs from persistence.
type SessionStore interface {
	Create(ctx context.Context, ts *TravelSession) error
	Get(ctx context.Context, id types.ID) (*TravelSession, bool, error)
	Update(ctx context.Context, id types.ID, mutate func(*TravelSession) error) (*TravelSession, error)
}

// QuotaService meters orchestrator calls per owner (user uid, or session id
// for anonymous sessions).
type QuotaService interface {
	UseToken(ctx context.Context, ownerID string) error
}

// PlaceSearcher runs free-form place lookups feeding chat search results.
type PlaceSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]maps.Place, error)
}

// BudgetEstimator prices a rough trip when a plan is created.
type BudgetEstimator interface {
	QuickEstimate(ctx context.Context, destination string, travelers int) (types.Money, error)
}

type Manager struct {
	store  SessionStore
	orch   ai.Orchestrator
	quota  QuotaService
	places PlaceSearcher
	budget BudgetEstimator
	hints  *HintBuilder
}

// NewManager wires the conversational flow. Every dependency except store may
// be nil: without an orchestrator replies fall back to templates, without
// places no searches run, without budget plans carry no estimate.
func NewManager(store SessionStore, orch ai.Orchestrator, quota QuotaService, places PlaceSearcher, budget BudgetEstimator, hints *HintBuilder) *Manager {
	return &Manager{store: store, orch: orch, quota: quota, places: places, budget: budget, hints: hints}
}

type StartCommand struct {
	SessionID      types.ID // empty means mint a new id
	UserID         string
	InitialMessage string
	Source         string
	Metadata       map[string]string
}

type ChatCommand struct {
	SessionID types.ID
	UserID    string
	Message   string
	Metadata  map[string]string
}

// ChatResult carries everything one chat turn produced.
type ChatResult struct {
	Session         *TravelSession
	Created         bool
	Reply           Turn
	Intent          intent.Result
	Entities        map[string]string
	SearchResults   map[string]any
	SearchTriggered bool
	Hints           []Hint
}

// GetOrCreate returns the existing session or creates a fresh one under the
// requested id. Idempotent: repeating the call never duplicates anything.
// The bool reports whether a session was created.
func (m *Manager) GetOrCreate(ctx context.Context, cmd StartCommand) (*TravelSession, bool, error) {
	if !cmd.SessionID.IsZero() {
		existing, ok, err := m.store.Get(ctx, cmd.SessionID)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return existing, false, nil
		}
	}

	now := time.Now().UTC()
	sess := &TravelSession{
		ID:        cmd.SessionID,
		UserID:    cmd.UserID,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if sess.ID.IsZero() {
		sess.ID = types.NewID()
	}
	if cmd.Source != "" || len(cmd.Metadata) > 0 {
		extra := make(map[string]string, len(cmd.Metadata)+1)
		for k, v := range cmd.Metadata {
			if v != "" {
				extra[k] = v
			}
		}
		if cmd.Source != "" {
			extra["source"] = cmd.Source
		}
		sess.Data.Context.Extra = extra
	}
	if msg := strings.TrimSpace(cmd.InitialMessage); msg != "" {
		sess.Data.History = append(sess.Data.History, newTurn(RoleUser, msg, now))
		det := intent.Detect(msg, intent.TripInfo{})
		sess.Data.Context = sess.Data.Context.Merge(contextFromInfo(det.TripInfo))
	}

	if err := m.store.Create(ctx, sess); err != nil {
		if errors.Is(err, ErrConflict) {
			// Lost a create race for this id; serve the winner's session.
			existing, ok, err2 := m.store.Get(ctx, sess.ID)
			if err2 == nil && ok {
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	return sess, true, nil
}

// AddChatMessage runs one conversational turn: resolve the session (unknown
// ids recover by implicit recreation), detect intent, merge trip context,
// produce the assistant reply, maintain the trip plan, and persist both turns.
// A nil result only ever means the store itself failed.
func (m *Manager) AddChatMessage(ctx context.Context, cmd ChatCommand) (*ChatResult, error) {
	msg := strings.TrimSpace(cmd.Message)
	if msg == "" {
		return nil, ErrBadRequest
	}

	sess, created, err := m.GetOrCreate(ctx, StartCommand{SessionID: cmd.SessionID, UserID: cmd.UserID})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	userTurn := newTurn(RoleUser, msg, now)

	det := intent.Detect(msg, sess.Data.Context.TripInfo())
	mergedCtx := sess.Data.Context.Merge(contextFromInfo(det.TripInfo))
	mergedCtx = mergedCtx.Merge(TripContext{Extra: cmd.Metadata})

	reply, aiResp := m.composeReply(ctx, sess, msg, det, mergedCtx)
	if aiResp != nil {
		mergedCtx = mergedCtx.Merge(contextFromEntities(aiResp.Entities))
	}

	plan, nextStatus := m.planFor(ctx, sess, det, mergedCtx, now)

	searchResults, searchTriggered := m.runSearch(ctx, det, mergedCtx, aiResp)

	assistantTurn := newTurn(RoleAssistant, reply, now)

	updated, err := m.persistTurn(ctx, sess, userTurn, assistantTurn, mergedCtx, plan, nextStatus)
	if err != nil {
		return nil, err
	}

	res := &ChatResult{
		Session:         updated,
		Created:         created,
		Reply:           assistantTurn,
		Intent:          det,
		Entities:        entitiesPayload(det, aiResp),
		SearchResults:   searchResults,
		SearchTriggered: searchTriggered,
	}
	if m.hints != nil {
		res.Hints = m.hints.Build(ctx, updated, det)
	}
	if aiResp != nil && aiResp.FollowUp != nil {
		if q := strings.TrimSpace(*aiResp.FollowUp); q != "" {
			res.Hints = append(res.Hints, Hint{Text: q, Type: "question", Action: "reply"})
		}
	}
	return res, nil
}

// Get returns the session, reporting absence without error.
func (m *Manager) Get(ctx context.Context, id types.ID) (*TravelSession, bool, error) {
	return m.store.Get(ctx, id)
}

// PlanSnapshot returns a copy of the session's trip plan for downstream use.
func (m *Manager) PlanSnapshot(ctx context.Context, id types.ID) (*TripPlan, error) {
	sess, ok, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	if sess.Plan == nil {
		return nil, ErrNoPlan
	}
	plan := *sess.Plan
	return &plan, nil
}

// CompleteSession marks the session completed, e.g. once a booking exists.
// Completing an already-completed session is a no-op.
func (m *Manager) CompleteSession(ctx context.Context, id types.ID) error {
	_, err := m.store.Update(ctx, id, func(cur *TravelSession) error {
		if cur.Status == StatusCompleted {
			return nil
		}
		if !CanTransition(cur.Status, StatusCompleted) {
			return ErrInvalidState
		}
		cur.Status = StatusCompleted
		return nil
	})
	return err
}

// composeReply asks the orchestrator for the assistant message and falls back
// to a template reply on any failure. Quota refusals count as failures.
func (m *Manager) composeReply(ctx context.Context, sess *TravelSession, msg string, det intent.Result, tc TripContext) (string, *ai.Response) {
	if m.orch == nil {
		return templateReply(det, tc), nil
	}

	if m.quota != nil {
		owner := sess.UserID
		if owner == "" {
			owner = string(sess.ID)
		}
		if err := m.quota.UseToken(ctx, owner); err != nil {
			log.Warn().Err(err).Str("session_id", string(sess.ID)).Msg("ai quota refused, serving template reply")
			return templateReply(det, tc), nil
		}
	}

	aictx, cancel := context.WithTimeout(ctx, aiReplyTimeout)
	defer cancel()

	resp, err := m.orch.GenerateResponse(aictx, msg, promptContext(sess, tc))
	if err != nil {
		log.Warn().Err(err).Str("session_id", string(sess.ID)).Msg("orchestrator failed, serving template reply")
		return templateReply(det, tc), nil
	}
	return resp.Reply, resp
}

// planFor decides what the turn means for the trip plan. The plan is created
// at most once per session, then refreshed in place on later planning turns.
// The returned status is the transition to apply, or empty for none.
func (m *Manager) planFor(ctx context.Context, sess *TravelSession, det intent.Result, tc TripContext, now time.Time) (*TripPlan, Status) {
	if !det.WantsTripPlan || det.Confidence < intent.PlanConfidenceThreshold {
		return nil, ""
	}
	if sess.Plan != nil {
		refreshed := *sess.Plan
		refreshed.Refresh(tc, now)
		return &refreshed, ""
	}

	plan := &TripPlan{
		Destination: tc.Destination,
		Dates:       tc.Dates,
		Travelers:   tc.PartySize,
		Interests:   tc.Interests,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if m.budget != nil && tc.Destination != "" {
		travelers := tc.PartySize
		if travelers == 0 {
			travelers = 1
		}
		if est, err := m.budget.QuickEstimate(ctx, tc.Destination, travelers); err == nil {
			plan.EstimatedBudget = &est
		} else {
			log.Debug().Err(err).Str("destination", tc.Destination).Msg("budget estimate skipped")
		}
	}
	return plan, StatusPlanning
}

// runSearch executes at most one place search per turn: the orchestrator's
// suggested query wins; otherwise a confirmed planning turn with a known
// destination searches top attractions. Failures degrade to no results.
func (m *Manager) runSearch(ctx context.Context, det intent.Result, tc TripContext, aiResp *ai.Response) (map[string]any, bool) {
	if m.places == nil {
		return nil, false
	}

	query := ""
	if aiResp != nil && aiResp.SearchQuery != nil {
		query = strings.TrimSpace(*aiResp.SearchQuery)
	}
	if query == "" && det.WantsTripPlan && det.Confidence >= intent.PlanConfidenceThreshold && tc.Destination != "" {
		interest := "top attractions"
		if len(tc.Interests) > 0 {
			interest = tc.Interests[0]
		}
		query = fmt.Sprintf("%s in %s", interest, tc.Destination)
	}
	if query == "" {
		return nil, false
	}

	places, err := m.places.Search(ctx, query, maxSearchResults)
	if err != nil {
		log.Debug().Err(err).Str("query", query).Msg("place search failed")
		return nil, false
	}
	if places == nil {
		places = []maps.Place{}
	}
	return map[string]any{"query": query, "places": places}, true
}

// persistTurn writes the turn through the store. If the session vanished
// between load and write it is recreated with this turn, so the chat path
// never surfaces ErrNotFound to callers.
func (m *Manager) persistTurn(ctx context.Context, sess *TravelSession, userTurn, assistantTurn Turn, tc TripContext, plan *TripPlan, nextStatus Status) (*TravelSession, error) {
	apply := func(cur *TravelSession) error {
		cur.Data.History = append(cur.Data.History, userTurn, assistantTurn)
		cur.Data.Context = cur.Data.Context.Merge(tc)
		if plan != nil {
			if cur.Plan == nil {
				cur.Plan = plan
			} else {
				cur.Plan.Refresh(tc, assistantTurn.CreatedAt)
			}
		}
		if cur.Status == StatusAbandoned {
			// A returning user revives the conversation.
			cur.Status = StatusActive
		}
		if nextStatus != "" && CanTransition(cur.Status, nextStatus) {
			cur.Status = nextStatus
		}
		return nil
	}

	updated, err := m.store.Update(ctx, sess.ID, apply)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	log.Warn().Str("session_id", string(sess.ID)).Msg("session vanished mid-turn, recreating")
	fresh := &TravelSession{
		ID:        sess.ID,
		UserID:    sess.UserID,
		Status:    StatusActive,
		Data:      sess.Data,
		Plan:      sess.Plan,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: assistantTurn.CreatedAt,
	}
	_ = apply(fresh)
	if err := m.store.Create(ctx, fresh); err != nil {
		if errors.Is(err, ErrConflict) {
			// Someone recreated it first; apply the turn to theirs.
			return m.store.Update(ctx, sess.ID, apply)
		}
		return nil, err
	}
	return fresh, nil
}

// promptContext packages session state for orchestrator prompt injection.
func promptContext(sess *TravelSession, tc TripContext) map[string]string {
	history := sess.Data.History
	if len(history) > promptTurnWindow {
		history = history[len(history)-promptTurnWindow:]
	}
	var turns []string
	for _, t := range history {
		turns = append(turns, t.Role+": "+t.Content)
	}
	return map[string]string{
		"current_time": time.Now().UTC().Format(time.RFC3339),
		"trip_context": tc.Summary(),
		"recent_turns": strings.Join(turns, "\n"),
	}
}

// templateReply is the deterministic fallback used when no orchestrator is
// configured or the orchestrator call failed.
func templateReply(det intent.Result, tc TripContext) string {
	switch {
	case det.WantsTripPlan && tc.Destination == "":
		return "I'd love to help you plan a trip! Where would you like to go?"
	case det.WantsTripPlan && tc.Dates == "":
		return fmt.Sprintf("A trip to %s sounds great. When are you thinking of going?", tc.Destination)
	case det.WantsTripPlan:
		return fmt.Sprintf("Let's plan your trip to %s %s. I've put together a first plan; tell me what you enjoy and I'll refine it.", tc.Destination, tc.Dates)
	case tc.Destination != "":
		return fmt.Sprintf("Happy to help with %s. Say \"plan a trip\" whenever you want me to build an itinerary.", tc.Destination)
	default:
		return "I'm your travel assistant. Tell me where you'd like to go and I'll help you plan it."
	}
}

func newTurn(role, content string, at time.Time) Turn {
	return Turn{ID: types.NewID(), Role: role, Content: content, CreatedAt: at}
}

func contextFromInfo(info intent.TripInfo) TripContext {
	return TripContext{
		Destination: info.Destination,
		Dates:       info.Dates,
		PartySize:   info.PartySize,
	}
}

// contextFromEntities maps orchestrator-extracted entities onto the context.
func contextFromEntities(entities map[string]string) TripContext {
	var tc TripContext
	for k, v := range entities {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		switch k {
		case "destination":
			tc.Destination = v
		case "origin":
			tc.Origin = v
		case "dates":
			tc.Dates = v
		case "party_size":
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				tc.PartySize = n
			}
		case "interests":
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					tc.Interests = append(tc.Interests, part)
				}
			}
		default:
			if tc.Extra == nil {
				tc.Extra = map[string]string{}
			}
			tc.Extra[k] = v
		}
	}
	return tc
}

// entitiesPayload renders the envelope's entities map: accumulated trip info
// plus whatever the orchestrator extracted this turn.
func entitiesPayload(det intent.Result, aiResp *ai.Response) map[string]string {
	out := map[string]string{}
	if det.TripInfo.Destination != "" {
		out["destination"] = det.TripInfo.Destination
	}
	if det.TripInfo.Dates != "" {
		out["dates"] = det.TripInfo.Dates
	}
	if det.TripInfo.PartySize > 0 {
		out["party_size"] = strconv.Itoa(det.TripInfo.PartySize)
	}
	if aiResp != nil {
		for k, v := range aiResp.Entities {
			if v != "" {
				out[k] = v
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
