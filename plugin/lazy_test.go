package plugin

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestLazy_LoadsOnce(t *testing.T) {
	var calls atomic.Int32
	l := NewLazy(func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "page", nil
	})

	if l.Loaded() {
		t.Fatal("should not be loaded before Get")
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := l.Get(context.Background())
			if err != nil || v != "page" {
				t.Errorf("Get = %q, %v", v, err)
			}
		}()
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("loader called %d times, want 1", calls.Load())
	}
	if !l.Loaded() {
		t.Error("should be loaded after Get")
	}
}

func TestLazy_RetriesAfterFailure(t *testing.T) {
	attempts := 0
	l := NewLazy(func(ctx context.Context) (int, error) {
		attempts++
		if attempts == 1 {
			return 0, errors.New("chunk failed")
		}
		return 42, nil
	})

	if _, err := l.Get(context.Background()); err == nil {
		t.Fatal("first Get should fail")
	}
	if l.Loaded() {
		t.Fatal("failed load should not be cached")
	}
	v, err := l.Get(context.Background())
	if err != nil || v != 42 {
		t.Fatalf("second Get = %d, %v", v, err)
	}
}

func TestValue_IsResolved(t *testing.T) {
	l := Value(7)
	if !l.Loaded() {
		t.Fatal("Value should be loaded")
	}
	if v, _ := l.Get(context.Background()); v != 7 {
		t.Errorf("Get = %d, want 7", v)
	}

	var nilLazy *Lazy[int]
	if nilLazy.valid() {
		t.Error("nil Lazy should be invalid")
	}
}
