package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSession_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	writeTestSession(t, s, "s1")
	err := s.WriteSession(ctx, Session{ID: "s1", Modulus: "101", ToolkitVersion: "x", TermFormat: "y"})
	require.NoError(t, err)

	got, err := s.ReadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, Session{
		ID:             "s1",
		Modulus:        "97",
		State:          StateActive,
		ToolkitVersion: "0.1.0",
		TermFormat:     "1",
	}, got)
}

func TestReadSession_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadSession(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCloseSession(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestSession(t, s, "s1")

	require.NoError(t, s.CloseSession(ctx, "s1"))
	require.NoError(t, s.CloseSession(ctx, "s1"))

	got, err := s.ReadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, StateClosed, got.State)

	assert.ErrorIs(t, s.CloseSession(ctx, "missing"), ErrNotFound)
}

func TestListAndFindOpenSessions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	writeTestSession(t, s, "b")
	writeTestSession(t, s, "a")
	writeTestSession(t, s, "c")
	require.NoError(t, s.CloseSession(ctx, "b"))

	all, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
	assert.Equal(t, "c", all[2].ID)

	open, err := s.FindOpenSessions(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "a", open[0].ID)
	assert.Equal(t, "c", open[1].ID)
}

func TestListSessions_Empty(t *testing.T) {
	s := createTestStore(t)

	all, err := s.ListSessions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestWriteAndReadCalls(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestSession(t, s, "s1")

	prove := createTestCall("s1", 3, OpProve)
	prove.Function = "f"
	prove.Input = "(let (\n)\n    false\n)"
	prove.InputHash = "abc"
	prove.Output = "proof"

	// Written out of order; read back by seq.
	require.NoError(t, s.WriteCall(ctx, prove))
	require.NoError(t, s.WriteCall(ctx, createTestCall("s1", 1, OpInit)))
	require.NoError(t, s.WriteCall(ctx, createTestCall("s1", 2, OpCompile)))

	calls, err := s.ReadCalls(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, calls, 3)
	assert.Equal(t, []Op{OpInit, OpCompile, OpProve}, []Op{calls[0].Op, calls[1].Op, calls[2].Op})
	assert.Equal(t, prove, calls[2])
}

func TestWriteCall_DuplicateSeqIgnored(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestSession(t, s, "s1")

	first := createTestCall("s1", 1, OpInit)
	first.Output = "first"
	second := createTestCall("s1", 1, OpCleanup)
	second.Output = "second"

	require.NoError(t, s.WriteCall(ctx, first))
	require.NoError(t, s.WriteCall(ctx, second))

	calls, err := s.ReadCalls(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "first", calls[0].Output)
}

func TestFindCallsByInputHash(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestSession(t, s, "s1")
	writeTestSession(t, s, "s2")

	for _, c := range []Call{
		{SessionID: "s2", Seq: 1, Op: OpProve, InputHash: "h1"},
		{SessionID: "s1", Seq: 2, Op: OpProve, InputHash: "h1"},
		{SessionID: "s1", Seq: 3, Op: OpVerify, InputHash: "h2"},
	} {
		require.NoError(t, s.WriteCall(ctx, c))
	}

	calls, err := s.FindCallsByInputHash(ctx, "h1")
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Equal(t, "s1", calls[0].SessionID)
	assert.Equal(t, "s2", calls[1].SessionID)
}

func TestGetLastSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestSession(t, s, "s1")

	seq, err := s.GetLastSeq(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	require.NoError(t, s.WriteCall(ctx, createTestCall("s1", 4, OpInit)))
	require.NoError(t, s.WriteCall(ctx, createTestCall("s1", 2, OpCompile)))

	seq, err = s.GetLastSeq(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), seq)
}
