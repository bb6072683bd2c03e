package batchloader_test

import (
	"context"
	"errors"
	"testing"

	"batchloader"
)

func noopFetch(_ context.Context, keys []int) (map[int][]string, error) {
	return nil, nil
}

func TestFor_SameIdentityReturnsSameLoader(t *testing.T) {
	_, err := batchloader.Run(context.Background(), func(ctx context.Context) (int, error) {
		l1, ferr := batchloader.For(ctx, "users", noopFetch)
		if ferr != nil {
			return 0, ferr
		}
		l2, ferr := batchloader.For(ctx, "users", noopFetch)
		if ferr != nil {
			return 0, ferr
		}
		if l1 != l2 {
			t.Error("same identity within one Context must return the same *Loader")
		}

		l3, ferr := batchloader.For(ctx, "posts", noopFetch)
		if ferr != nil {
			return 0, ferr
		}
		if l3 == l1 {
			t.Error("different identities must never share a Loader")
		}
		return 0, nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
}

func TestFor_StructIdentities(t *testing.T) {
	type usersKey struct{}
	type postsKey struct{}

	_, err := batchloader.Run(context.Background(), func(ctx context.Context) (int, error) {
		l1, ferr := batchloader.For(ctx, usersKey{}, noopFetch)
		if ferr != nil {
			return 0, ferr
		}
		l2, ferr := batchloader.For(ctx, usersKey{}, noopFetch)
		if ferr != nil {
			return 0, ferr
		}
		if l1 != l2 {
			t.Error("equal struct identities must return the same *Loader")
		}
		l3, ferr := batchloader.For(ctx, postsKey{}, noopFetch)
		if ferr != nil {
			return 0, ferr
		}
		if l3 == l1 {
			t.Error("distinct struct identities must return distinct Loaders")
		}
		return 0, nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
}

func TestFor_TypeMismatchForOneIdentity(t *testing.T) {
	_, err := batchloader.Run(context.Background(), func(ctx context.Context) (int, error) {
		if _, ferr := batchloader.For(ctx, "users", noopFetch); ferr != nil {
			return 0, ferr
		}
		_, ferr := batchloader.For(ctx, "users", func(_ context.Context, keys []string) (map[string][]int, error) {
			return nil, nil
		})
		if ferr == nil {
			t.Error("expected an error registering one identity under two type pairs")
		}
		return 0, nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
}

func TestFor_OutsideRun(t *testing.T) {
	_, err := batchloader.For(context.Background(), "users", noopFetch)
	if !errors.Is(err, batchloader.ErrNoContext) {
		t.Fatalf("For outside Run error = %v, want ErrNoContext", err)
	}
}

func TestFor_ArgumentValidation(t *testing.T) {
	_, runErr := batchloader.Run(context.Background(), func(ctx context.Context) (int, error) {
		if _, ferr := batchloader.For[int, string](ctx, "users", nil); ferr == nil {
			t.Error("expected error for nil batch function")
		}
		if _, ferr := batchloader.For(ctx, nil, noopFetch); ferr == nil {
			t.Error("expected error for nil identity")
		}
		return 0, nil
	})
	if runErr != nil {
		t.Fatalf("Run failed: %v", runErr)
	}
	if _, ferr := batchloader.For(nil, "users", noopFetch); ferr == nil {
		t.Error("expected error for nil context")
	}
}

func TestFor_AfterRunFinished(t *testing.T) {
	c := batchloader.NewContext()
	_, err := batchloader.RunWith(context.Background(), c, func(ctx context.Context) (int, error) {
		return 0, nil
	})
	if err != nil {
		t.Fatalf("RunWith failed: %v", err)
	}

	ctx := batchloader.Enter(context.Background(), c)
	if _, ferr := batchloader.For(ctx, "users", noopFetch); !errors.Is(ferr, batchloader.ErrRunFinished) {
		t.Fatalf("For after run error = %v, want ErrRunFinished", ferr)
	}
}
