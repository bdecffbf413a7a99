package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "amora.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testIdentity() Identity {
	return NewIdentity("guild-1", "channel-1", "user-1")
}

func TestIdentity_DMNormalization(t *testing.T) {
	id := NewIdentity("", "c", "u")
	assert.Equal(t, DMGuild, id.GuildID)
	assert.Equal(t, "dm|c|u", id.Key())
	assert.Equal(t, "dm|u", id.StatKey())
}

func TestGetOrCreateSession_Idempotent(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()
	id := testIdentity()

	first, err := s.GetOrCreateSession(ctx, id)
	require.NoError(t, err)
	assert.Greater(t, first.ID, int64(0))
	assert.False(t, first.LastBotMessage.Valid)
	assert.False(t, first.Summary.Valid)

	second, err := s.GetOrCreateSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// A different channel means a different identity, hence a new row.
	other, err := s.GetOrCreateSession(ctx, NewIdentity("guild-1", "channel-2", "user-1"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestAppendMessage_TruncatesAndTouches(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()

	sess, err := s.GetOrCreateSession(ctx, testIdentity())
	require.NoError(t, err)

	long := strings.Repeat("é", MaxMessageLen+100)
	_, err = s.AppendMessage(ctx, sess.ID, "user", long)
	require.NoError(t, err)

	msgs, err := s.RecentMessages(ctx, sess.ID, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, MaxMessageLen, len([]rune(msgs[0].Content)))

	after, err := s.GetOrCreateSession(ctx, testIdentity())
	require.NoError(t, err)
	assert.False(t, after.UpdatedAt.Before(sess.UpdatedAt))
}

func TestRotateMessages_KeepsNewest(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()

	sess, err := s.GetOrCreateSession(ctx, testIdentity())
	require.NoError(t, err)

	for i := 0; i < 8; i++ {
		_, err := s.AppendMessage(ctx, sess.ID, "user", "msg-"+string(rune('a'+i)))
		require.NoError(t, err)
	}
	require.NoError(t, s.RotateMessages(ctx, sess.ID, 3))

	msgs, err := s.RecentMessages(ctx, sess.ID, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "msg-f", msgs[0].Content)
	assert.Equal(t, "msg-h", msgs[2].Content)
}

func TestAddSummary_MirrorsLatest(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()

	sess, err := s.GetOrCreateSession(ctx, testIdentity())
	require.NoError(t, err)

	require.NoError(t, s.AddSummary(ctx, sess.ID, "first"))
	require.NoError(t, s.AddSummary(ctx, sess.ID, "second"))

	sess, err = s.GetOrCreateSession(ctx, testIdentity())
	require.NoError(t, err)
	require.True(t, sess.Summary.Valid)
	assert.Equal(t, "second", sess.Summary.String)

	all, err := s.Summaries(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Content)
}

func TestResetSession_CascadesMessages(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()
	id := testIdentity()

	sess, err := s.GetOrCreateSession(ctx, id)
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, sess.ID, "user", "oi")
	require.NoError(t, err)

	require.NoError(t, s.ResetSession(ctx, id))

	msgs, err := s.RecentMessages(ctx, sess.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	fresh, err := s.GetOrCreateSession(ctx, id)
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, fresh.ID)
}

func TestUpsertAffection_Accumulates(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()
	id := testIdentity()

	stat, err := s.GetAffection(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, stat.HugsGiven)
	assert.Zero(t, stat.LoveScore)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.UpsertAffection(ctx, id, AffectionDelta{Hugs: 1, Love: 2}))
	}

	stat, err = s.GetAffection(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stat.HugsGiven)
	assert.Equal(t, int64(10), stat.LoveScore)
	assert.WithinDuration(t, time.Now(), stat.LastInteraction, 5*time.Second)
}

func TestUpsertAffection_TouchOnly(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()
	id := testIdentity()

	require.NoError(t, s.UpsertAffection(ctx, id, AffectionDelta{Touch: true}))

	stat, err := s.GetAffection(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, stat.HugsGiven)
	assert.Zero(t, stat.LoveScore)
	assert.False(t, stat.LastInteraction.IsZero())
}

func TestResetAffection(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()
	id := testIdentity()

	require.NoError(t, s.UpsertAffection(ctx, id, AffectionDelta{Hugs: 3}))
	require.NoError(t, s.ResetAffection(ctx, id))

	stat, err := s.GetAffection(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, stat.HugsGiven)
}

func TestUpsertMode_Supersedes(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()
	id := testIdentity()

	require.NoError(t, s.UpsertMode(ctx, id, "fantasy", `{"turn":1}`, time.Minute))
	require.NoError(t, s.UpsertMode(ctx, id, "crying", `{}`, time.Minute))

	rec, err := s.GetMode(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "crying", rec.Mode)
	assert.True(t, rec.ExpiresAt.After(time.Now()))
}

func TestUpdateModePayload_KeepsExpiry(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()
	id := testIdentity()

	require.NoError(t, s.UpsertMode(ctx, id, "slot_filling", `{"waiting_for":true}`, time.Minute))
	before, err := s.GetMode(ctx, id)
	require.NoError(t, err)

	require.NoError(t, s.UpdateModePayload(ctx, id, `{"waiting_for":false}`))
	after, err := s.GetMode(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, `{"waiting_for":false}`, after.StatePayload)
	assert.Equal(t, before.ExpiresAt, after.ExpiresAt)
}

func TestDeleteMode(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()
	id := testIdentity()

	require.NoError(t, s.UpsertMode(ctx, id, "crying", `{}`, time.Minute))
	require.NoError(t, s.DeleteMode(ctx, id))

	rec, err := s.GetMode(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestPurgeExpired(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()

	expired := NewIdentity("g", "c1", "u")
	active := NewIdentity("g", "c2", "u")
	require.NoError(t, s.UpsertMode(ctx, expired, "crying", `{}`, -time.Second))
	require.NoError(t, s.UpsertMode(ctx, active, "fantasy", `{}`, time.Hour))

	_, err := s.GetOrCreateSession(ctx, expired)
	require.NoError(t, err)

	modes, sessions, err := s.PurgeExpired(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), modes)
	assert.Equal(t, int64(1), sessions)

	rec, err := s.GetMode(ctx, active)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "fantasy", rec.Mode)
}

func TestCooldownRoundtrip(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()
	id := testIdentity()

	rec, err := s.GetCooldown(ctx, id, "elogio")
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, s.UpsertCooldown(ctx, id, "elogio", 30))

	rec, err = s.GetCooldown(ctx, id, "elogio")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(30), rec.DurationSeconds)

	remaining := rec.Remaining(time.Now())
	assert.Greater(t, remaining, time.Duration(0))
	assert.LessOrEqual(t, remaining, 30*time.Second)
	assert.LessOrEqual(t, rec.Remaining(time.Now().Add(31*time.Second)), time.Duration(0))

	// Overwrite, never append.
	require.NoError(t, s.UpsertCooldown(ctx, id, "elogio", 10))
	rec, err = s.GetCooldown(ctx, id, "elogio")
	require.NoError(t, err)
	assert.Equal(t, int64(10), rec.DurationSeconds)
}
