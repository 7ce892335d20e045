package session

import (
	"context"
	"fmt"
	"testing"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager()
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		key := fmt.Sprintf("scenario-%d", i)
		_ = mgr.WithScenario(ctx, key, func(context.Context) error { return nil })
	}

	if n := mgr.active(); n != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining after use", n)
	}
}
