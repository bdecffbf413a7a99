package mind

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"amora-bot/internal/storage"
)

// Mode tags. Each identity carries at most one at a time.
const (
	ModeCrying      = "crying"
	ModeFantasy     = "fantasy"
	ModeSlotFilling = "slot_filling"
)

// End reasons.
const (
	EndReasonConsoled  = "consoled"
	EndReasonCompleted = "completed"
	EndReasonCancelled = "cancelled"
)

const modeMirrorCapacity = 256

// ModeStatus is the answer to "is this identity mid-mode?".
type ModeStatus struct {
	Active  bool
	Mode    string
	Payload string
}

type modeEntry struct {
	mode      string
	payload   string
	expiresAt time.Time
}

// Modes layers short-lived, mutually exclusive interaction states over the
// durable store. The in-memory mirror absorbs reads; the store keeps active
// modes across restarts because expiry is an absolute instant.
type Modes struct {
	store *storage.Storage

	mu     sync.Mutex
	mirror map[string]modeEntry
	fifo   fifoIndex
}

func NewModes(store *storage.Storage) *Modes {
	return &Modes{
		store:  store,
		mirror: make(map[string]modeEntry),
		fifo:   fifoIndex{capacity: modeMirrorCapacity},
	}
}

// Start puts id into mode with the given payload and TTL, superseding any
// prior mode. Returns false only on storage failure.
func (m *Modes) Start(ctx context.Context, id storage.Identity, mode, payload string, ttl time.Duration) bool {
	if err := m.store.UpsertMode(ctx, id, mode, payload, ttl); err != nil {
		log.Warn().Err(err).Str("identity", id.Key()).Str("mode", mode).Msg("failed to start mode")
		return false
	}
	m.mirrorSet(id.Key(), modeEntry{mode: mode, payload: payload, expiresAt: time.Now().Add(ttl)})
	return true
}

// IsIn reports whether id has an active, unexpired mode. expected narrows the
// check to one mode tag; pass "" to match any. Expired entries are treated as
// absent even before the sweep physically deletes them.
func (m *Modes) IsIn(ctx context.Context, id storage.Identity, expected string) ModeStatus {
	key := id.Key()
	now := time.Now()

	m.mu.Lock()
	entry, ok := m.mirror[key]
	if ok && now.After(entry.expiresAt) {
		delete(m.mirror, key)
		m.fifo.remove(key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		rec, err := m.store.GetMode(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("identity", key).Msg("mode lookup failed, treating as no active mode")
			return ModeStatus{}
		}
		if rec == nil || now.After(rec.ExpiresAt) {
			return ModeStatus{}
		}
		entry = modeEntry{mode: rec.Mode, payload: rec.StatePayload, expiresAt: rec.ExpiresAt}
		m.mirrorSet(key, entry)
	}

	if expected != "" && entry.mode != expected {
		return ModeStatus{}
	}
	return ModeStatus{Active: true, Mode: entry.mode, Payload: entry.payload}
}

// UpdatePayload overwrites the mode payload in both layers without changing
// the expiry instant.
func (m *Modes) UpdatePayload(ctx context.Context, id storage.Identity, payload string) bool {
	if err := m.store.UpdateModePayload(ctx, id, payload); err != nil {
		log.Warn().Err(err).Str("identity", id.Key()).Msg("failed to update mode payload")
		return false
	}
	m.mu.Lock()
	if entry, ok := m.mirror[id.Key()]; ok {
		entry.payload = payload
		m.mirror[id.Key()] = entry
	}
	m.mu.Unlock()
	return true
}

// End removes id's mode from both layers.
func (m *Modes) End(ctx context.Context, id storage.Identity, reason string) {
	if err := m.store.DeleteMode(ctx, id); err != nil {
		log.Warn().Err(err).Str("identity", id.Key()).Msg("failed to delete mode")
	}
	m.mu.Lock()
	delete(m.mirror, id.Key())
	m.fifo.remove(id.Key())
	m.mu.Unlock()
	log.Debug().Str("identity", id.Key()).Str("reason", reason).Msg("mode ended")
}

// ConsoleIfCrying implements the consolation contract: any comforting command
// calls this before proceeding, and an active "crying" mode ends with the
// distinguished reason.
func (m *Modes) ConsoleIfCrying(ctx context.Context, id storage.Identity) bool {
	if !m.IsIn(ctx, id, ModeCrying).Active {
		return false
	}
	m.End(ctx, id, EndReasonConsoled)
	return true
}

func (m *Modes) mirrorSet(key string, entry modeEntry) {
	m.mu.Lock()
	_, exists := m.mirror[key]
	m.mirror[key] = entry
	if evicted, ok := m.fifo.noteInsert(key, exists); ok {
		delete(m.mirror, evicted)
	}
	m.mu.Unlock()
}

// SlotFillingState is the payload of the question/answer protocol:
// Idle → AwaitingAnswer (WaitingFor true) → Answered (Completed true).
// Answering does not end the mode; only TTL or an explicit End does.
type SlotFillingState struct {
	Question     string `json:"question"`
	ExpectedType string `json:"expected_type"`
	WaitingFor   bool   `json:"waiting_for"`
	UserResponse string `json:"user_response,omitempty"`
	Completed    bool   `json:"completed"`
}

// StartSlotFilling enters the awaiting-answer state for id.
func (m *Modes) StartSlotFilling(ctx context.Context, id storage.Identity, question, expectedType string, ttl time.Duration) bool {
	state := SlotFillingState{Question: question, ExpectedType: expectedType, WaitingFor: true}
	payload, _ := json.Marshal(state)
	return m.Start(ctx, id, ModeSlotFilling, string(payload), ttl)
}

// ProcessSlotFillingResponse records an inbound message as the awaited answer.
// Returns the updated state, or nil when id is not awaiting one.
func (m *Modes) ProcessSlotFillingResponse(ctx context.Context, id storage.Identity, response string) *SlotFillingState {
	st := m.IsIn(ctx, id, ModeSlotFilling)
	if !st.Active {
		return nil
	}
	var state SlotFillingState
	if err := json.Unmarshal([]byte(st.Payload), &state); err != nil {
		log.Warn().Err(err).Str("identity", id.Key()).Msg("malformed slot filling payload, ending mode")
		m.End(ctx, id, EndReasonCancelled)
		return nil
	}
	if !state.WaitingFor {
		return &state
	}
	state.WaitingFor = false
	state.UserResponse = response
	state.Completed = true
	payload, _ := json.Marshal(state)
	m.UpdatePayload(ctx, id, string(payload))
	return &state
}

// RolePlayState is the payload of multi-turn modes. The engine increments the
// turn counter; the caller ends the mode once Turn exceeds MaxTurns.
type RolePlayState struct {
	Scenario  string   `json:"scenario"`
	Turn      int      `json:"turn"`
	MaxTurns  int      `json:"max_turns"`
	Responses []string `json:"responses,omitempty"`
}

// StartRolePlay enters a multi-turn fantasy mode for id.
func (m *Modes) StartRolePlay(ctx context.Context, id storage.Identity, scenario string, maxTurns int, ttl time.Duration) bool {
	state := RolePlayState{Scenario: scenario, MaxTurns: maxTurns}
	payload, _ := json.Marshal(state)
	return m.Start(ctx, id, ModeFantasy, string(payload), ttl)
}

// AdvanceRolePlay consumes one inbound message: increments the turn and logs
// the response. done reports that the turn count has passed MaxTurns.
func (m *Modes) AdvanceRolePlay(ctx context.Context, id storage.Identity, response string) (state *RolePlayState, done bool) {
	st := m.IsIn(ctx, id, ModeFantasy)
	if !st.Active {
		return nil, false
	}
	var rp RolePlayState
	if err := json.Unmarshal([]byte(st.Payload), &rp); err != nil {
		log.Warn().Err(err).Str("identity", id.Key()).Msg("malformed role play payload, ending mode")
		m.End(ctx, id, EndReasonCancelled)
		return nil, false
	}
	rp.Turn++
	rp.Responses = append(rp.Responses, response)
	payload, _ := json.Marshal(rp)
	m.UpdatePayload(ctx, id, string(payload))
	return &rp, rp.Turn > rp.MaxTurns
}
