package batchloader_test

import (
	"context"
	"errors"
	"testing"

	"batchloader"
)

func TestPendingGet_HonorsContextCancellation(t *testing.T) {
	release := make(chan struct{})
	fetch := func(_ context.Context, keys []int) (map[int][]string, error) {
		<-release
		return map[int][]string{1: {"a"}}, nil
	}

	_, err := batchloader.Run(context.Background(), func(ctx context.Context) (int, error) {
		l, ferr := batchloader.For(ctx, "src", fetch)
		if ferr != nil {
			return 0, ferr
		}
		p := l.Load(1)

		canceled, cancel := context.WithCancel(ctx)
		cancel()
		if _, gerr := p.Get(canceled); !errors.Is(gerr, context.Canceled) {
			t.Errorf("Get with canceled ctx = %v, want context.Canceled", gerr)
		}

		// The result is still on its way; a live ctx receives it.
		close(release)
		vals, gerr := p.Get(ctx)
		if gerr != nil {
			return 0, gerr
		}
		if len(vals) != 1 || vals[0] != "a" {
			t.Errorf("Get after release = %v, want [a]", vals)
		}
		return 0, nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
}

func TestPendingGet_NilArguments(t *testing.T) {
	var p *batchloader.Pending[int]
	if _, err := p.Get(context.Background()); err == nil {
		t.Error("expected error for Get on nil Pending")
	}

	_, runErr := batchloader.Run(context.Background(), func(ctx context.Context) (int, error) {
		l, ferr := batchloader.For(ctx, "src", noopFetch)
		if ferr != nil {
			return 0, ferr
		}
		if _, gerr := l.Load(1).Get(nil); gerr == nil {
			t.Error("expected error for Get with nil context")
		}
		return 0, nil
	})
	if runErr != nil {
		t.Fatalf("Run failed: %v", runErr)
	}
}
