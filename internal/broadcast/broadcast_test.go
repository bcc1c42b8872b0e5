package broadcast

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFirstSuccessIgnoresFailures(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	got, err := FirstSuccess(context.Background(), []int{1, 2, 3}, func(ctx context.Context, n int) (int, error) {
		switch n {
		case 1:
			return 0, errors.New("frame gone")
		case 2:
			<-release
			return 2, nil
		default:
			return n * 10, nil
		}
	})
	if err != nil {
		t.Fatalf("first success: %v", err)
	}
	if got != 30 {
		t.Fatalf("expected the fast successful answer, got %d", got)
	}
}

func TestFirstSuccessAllFail(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")
	_, err := FirstSuccess(context.Background(), []error{errA, errB}, func(ctx context.Context, e error) (struct{}, error) {
		return struct{}{}, e
	})
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("expected joined errors, got %v", err)
	}
}

func TestFirstSuccessNoTargets(t *testing.T) {
	if _, err := FirstSuccess(context.Background(), nil, func(context.Context, int) (int, error) { return 0, nil }); !errors.Is(err, ErrNoTargets) {
		t.Fatalf("expected no targets error, got %v", err)
	}
}

func TestFirstSuccessHonorsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	block := make(chan struct{})
	defer close(block)
	_, err := FirstSuccess(ctx, []int{1}, func(context.Context, int) (int, error) {
		<-block
		return 1, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
