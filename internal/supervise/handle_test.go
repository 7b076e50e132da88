package supervise

import (
	"context"
	"testing"
	"time"
)

func TestAwaitIsIdempotent(t *testing.T) {
	skipOnWindows(t)

	h, err := Launch(shSpec("exit 7"))
	if err != nil {
		t.Fatalf("launch: %v", err)
	}

	ctx := context.Background()
	first, err := h.Await(ctx)
	if err != nil {
		t.Fatalf("first await: %v", err)
	}
	second, err := h.Await(ctx)
	if err != nil {
		t.Fatalf("second await: %v", err)
	}

	if first != second {
		t.Fatalf("await not idempotent: first=%v second=%v", first, second)
	}
	if first.Code != 7 {
		t.Fatalf("expected exit 7, got %v", first)
	}
	if state := h.State(); state != StateReaped {
		t.Fatalf("expected reaped state, got %s", state)
	}
}

func TestAwaitReflectsKillSignal(t *testing.T) {
	skipOnWindows(t)

	h, err := Launch(shSpec("sleep 10"))
	if err != nil {
		t.Fatalf("launch: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.kill(ctx, KillSpec{Grace: 500 * time.Millisecond}.withDefaults()); err != nil {
		t.Fatalf("kill: %v", err)
	}

	status, err := h.Await(ctx)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if status.Signal == "" {
		t.Fatalf("expected signal death, got %v", status)
	}
	if got := h.KillSequences(); got != 1 {
		t.Fatalf("expected one kill sequence, got %d", got)
	}
}

func TestKillAfterExitIsNoOp(t *testing.T) {
	skipOnWindows(t)

	h, err := Launch(shSpec("exit 0"))
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	<-h.waitDone

	ctx := context.Background()
	if err := h.kill(ctx, KillSpec{}.withDefaults()); err != nil {
		t.Fatalf("kill of exited process should succeed, got %v", err)
	}
	if got := h.KillSequences(); got != 0 {
		t.Fatalf("no signal sequence should have started, got %d", got)
	}
}

func TestStateAdvancesMonotonically(t *testing.T) {
	h := &Handle{}
	h.advance(StateKilled)
	h.advance(StateExited)
	if got := h.State(); got != StateKilled {
		t.Fatalf("state moved backwards: %s", got)
	}
	h.advance(StateReaped)
	if got := h.State(); got != StateReaped {
		t.Fatalf("expected reaped, got %s", got)
	}
}

func TestClaimFiresExactlyOnce(t *testing.T) {
	h := &Handle{}
	if !h.claim() {
		t.Fatalf("first claim should succeed")
	}
	if h.claim() {
		t.Fatalf("second claim should fail")
	}
}

func TestLaunchRequiresPath(t *testing.T) {
	if _, err := Launch(Spec{}); err == nil {
		t.Fatalf("expected an error for an empty path")
	}
}
