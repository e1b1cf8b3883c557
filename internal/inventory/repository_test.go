package inventory

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

type recordingTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *recordingTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *recordingTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type recordingBeginner struct {
	opts []pgx.TxOptions
	txs  []*recordingTx
}

func (b *recordingBeginner) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	b.opts = append(b.opts, opts)
	tx := &recordingTx{}
	b.txs = append(b.txs, tx)
	return tx, nil
}

func TestWithTxUsesReadCommitted(t *testing.T) {
	pool := &recordingBeginner{}

	require.NoError(t, WithTx(context.Background(), pool, func(pgx.Tx) error { return nil }))
	require.Len(t, pool.opts, 1)
	require.Equal(t, pgx.ReadCommitted, pool.opts[0].IsoLevel)
	require.True(t, pool.txs[0].committed)

	err := WithTx(context.Background(), pool, func(pgx.Tx) error { return ErrInsufficientStock })
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Equal(t, pgx.ReadCommitted, pool.opts[1].IsoLevel)
	require.False(t, pool.txs[1].committed)
	require.True(t, pool.txs[1].rolledBack)
}
