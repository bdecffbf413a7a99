package mind

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModes_AtMostOnePerIdentity(t *testing.T) {
	engine, _ := testEngine(t)
	ctx := context.Background()
	id := ident("c1")

	require.True(t, engine.Modes.Start(ctx, id, ModeFantasy, `{}`, time.Minute))
	require.True(t, engine.Modes.Start(ctx, id, ModeCrying, `{}`, time.Minute))

	st := engine.Modes.IsIn(ctx, id, "")
	require.True(t, st.Active)
	assert.Equal(t, ModeCrying, st.Mode)

	assert.False(t, engine.Modes.IsIn(ctx, id, ModeFantasy).Active)
}

func TestModes_TTLExpiry(t *testing.T) {
	engine, _ := testEngine(t)
	ctx := context.Background()
	id := ident("c1")

	require.True(t, engine.Modes.StartSlotFilling(ctx, id, "Qual seu animal favorito?", "any", 100*time.Millisecond))
	require.True(t, engine.Modes.IsIn(ctx, id, ModeSlotFilling).Active)

	time.Sleep(150 * time.Millisecond)
	assert.False(t, engine.Modes.IsIn(ctx, id, "").Active)
}

func TestModes_ExpiredInStoreTreatedAsAbsent(t *testing.T) {
	engine, store := testEngine(t)
	ctx := context.Background()
	id := ident("c1")

	// Row exists but is already expired; nothing has swept it yet.
	require.NoError(t, store.UpsertMode(ctx, id, ModeCrying, `{}`, -time.Second))
	assert.False(t, engine.Modes.IsIn(ctx, id, "").Active)
}

func TestModes_SurvivesMirrorLoss(t *testing.T) {
	engine, store := testEngine(t)
	ctx := context.Background()
	id := ident("c1")

	require.True(t, engine.Modes.Start(ctx, id, ModeCrying, `{"tears":3}`, time.Minute))

	// A fresh engine over the same store simulates a restart: the durable
	// record repopulates the mirror.
	restarted := NewEngine(store, 10)
	st := restarted.Modes.IsIn(ctx, id, ModeCrying)
	require.True(t, st.Active)
	assert.Equal(t, `{"tears":3}`, st.Payload)
}

func TestModes_EndRemovesBothLayers(t *testing.T) {
	engine, store := testEngine(t)
	ctx := context.Background()
	id := ident("c1")

	require.True(t, engine.Modes.Start(ctx, id, ModeFantasy, `{}`, time.Minute))
	engine.Modes.End(ctx, id, EndReasonCancelled)

	assert.False(t, engine.Modes.IsIn(ctx, id, "").Active)
	rec, err := store.GetMode(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSlotFilling_Protocol(t *testing.T) {
	engine, _ := testEngine(t)
	ctx := context.Background()
	id := ident("c1")

	require.True(t, engine.Modes.StartSlotFilling(ctx, id, "Q", "any", time.Minute))

	state := engine.Modes.ProcessSlotFillingResponse(ctx, id, "coelho")
	require.NotNil(t, state)
	assert.False(t, state.WaitingFor)
	assert.Equal(t, "coelho", state.UserResponse)
	assert.True(t, state.Completed)
	assert.Equal(t, "Q", state.Question)

	// Answering does not end the mode; that is the caller's call.
	st := engine.Modes.IsIn(ctx, id, ModeSlotFilling)
	require.True(t, st.Active)

	// A second message is not re-recorded as the answer.
	again := engine.Modes.ProcessSlotFillingResponse(ctx, id, "gato")
	require.NotNil(t, again)
	assert.Equal(t, "coelho", again.UserResponse)
}

func TestSlotFilling_NoModeNoAnswer(t *testing.T) {
	engine, _ := testEngine(t)
	assert.Nil(t, engine.Modes.ProcessSlotFillingResponse(context.Background(), ident("c1"), "coelho"))
}

func TestSlotFilling_MalformedPayloadEndsMode(t *testing.T) {
	engine, store := testEngine(t)
	ctx := context.Background()
	id := ident("c1")

	require.NoError(t, store.UpsertMode(ctx, id, ModeSlotFilling, `{not json`, time.Minute))
	assert.Nil(t, engine.Modes.ProcessSlotFillingResponse(ctx, id, "coelho"))
	assert.False(t, engine.Modes.IsIn(ctx, id, "").Active)
}

func TestRolePlay_TurnsAndTermination(t *testing.T) {
	engine, _ := testEngine(t)
	ctx := context.Background()
	id := ident("c1")

	require.True(t, engine.Modes.StartRolePlay(ctx, id, "floresta encantada", 2, time.Minute))

	state, done := engine.Modes.AdvanceRolePlay(ctx, id, "entro na floresta")
	require.NotNil(t, state)
	assert.Equal(t, 1, state.Turn)
	assert.False(t, done)

	state, done = engine.Modes.AdvanceRolePlay(ctx, id, "sigo a trilha")
	assert.Equal(t, 2, state.Turn)
	assert.False(t, done)

	state, done = engine.Modes.AdvanceRolePlay(ctx, id, "acordo do sonho")
	assert.Equal(t, 3, state.Turn)
	assert.True(t, done)
	assert.Len(t, state.Responses, 3)

	// Engine reports done; the caller ends the mode.
	engine.Modes.End(ctx, id, EndReasonCompleted)
	assert.False(t, engine.Modes.IsIn(ctx, id, "").Active)
}

func TestConsoleIfCrying(t *testing.T) {
	engine, _ := testEngine(t)
	ctx := context.Background()
	id := ident("c1")

	assert.False(t, engine.Modes.ConsoleIfCrying(ctx, id))

	require.True(t, engine.Modes.Start(ctx, id, ModeCrying, `{}`, time.Minute))
	assert.True(t, engine.Modes.ConsoleIfCrying(ctx, id))
	assert.False(t, engine.Modes.IsIn(ctx, id, ModeCrying).Active)

	// Consoling is specific to crying.
	require.True(t, engine.Modes.Start(ctx, id, ModeFantasy, `{}`, time.Minute))
	assert.False(t, engine.Modes.ConsoleIfCrying(ctx, id))
	assert.True(t, engine.Modes.IsIn(ctx, id, ModeFantasy).Active)
}

func TestModes_UpdatePayloadKeepsExpiry(t *testing.T) {
	engine, store := testEngine(t)
	ctx := context.Background()
	id := ident("c1")

	require.True(t, engine.Modes.Start(ctx, id, ModeFantasy, `{"turn":0}`, time.Minute))
	before, err := store.GetMode(ctx, id)
	require.NoError(t, err)

	require.True(t, engine.Modes.UpdatePayload(ctx, id, `{"turn":1}`))
	after, err := store.GetMode(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before.ExpiresAt, after.ExpiresAt)
	assert.Equal(t, `{"turn":1}`, engine.Modes.IsIn(ctx, id, "").Payload)
}
