package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

type fakeTx struct {
	pgx.Tx
}

func TestTxFromContext_Empty(t *testing.T) {
	if tx := TxFromContext(context.Background()); tx != nil {
		t.Errorf("expected nil tx, got %v", tx)
	}
}

func TestWithTx_RoundTrip(t *testing.T) {
	tx := &fakeTx{}
	ctx := WithTx(context.Background(), tx)

	got := TxFromContext(ctx)
	if got == nil {
		t.Fatal("expected tx in context")
	}
	if got.(*fakeTx) != tx {
		t.Error("expected the same tx back")
	}
}

func TestConn_PrefersTx(t *testing.T) {
	tx := &fakeTx{}
	ctx := WithTx(context.Background(), tx)

	if q := Conn(ctx, nil); q != Querier(tx) {
		t.Errorf("expected tx querier, got %T", q)
	}
}

func TestNoTx_PropagatesError(t *testing.T) {
	want := errors.New("boom")
	called := false
	err := NoTx{}.InTx(context.Background(), func(ctx context.Context) error {
		called = true
		return want
	})
	if !called {
		t.Fatal("expected fn to be called")
	}
	if !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}
}

func TestPoolTransactor_JoinsOuterTx(t *testing.T) {
	outer := &fakeTx{}
	ctx := WithTx(context.Background(), outer)

	// A nil pool would panic on Begin, so this only passes if the outer tx is reused.
	tr := NewTransactor(nil)
	err := tr.InTx(ctx, func(inner context.Context) error {
		if TxFromContext(inner) != pgx.Tx(outer) {
			t.Error("expected inner context to carry the outer tx")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
