package run

import "testing"

func TestCancelRegistry(t *testing.T) {
	t.Run("cancel marks the registered token", func(t *testing.T) {
		reg := NewCancelRegistry()
		token := reg.Register("bench-1", "run-1")

		if token.IsCancelled() {
			t.Fatal("fresh token must not be cancelled")
		}
		if !reg.Cancel("bench-1", "run-1") {
			t.Fatal("Cancel should find the registered token")
		}
		if !token.IsCancelled() {
			t.Fatal("token should be cancelled")
		}
	})

	t.Run("cancel of unknown run reports not found", func(t *testing.T) {
		reg := NewCancelRegistry()
		if reg.Cancel("bench-1", "run-1") {
			t.Fatal("Cancel should report false for an unknown run")
		}
	})

	t.Run("release makes the run uncancellable", func(t *testing.T) {
		reg := NewCancelRegistry()
		reg.Register("bench-1", "run-1")
		reg.Release("bench-1", "run-1")

		if reg.Cancel("bench-1", "run-1") {
			t.Fatal("Cancel should report false after release")
		}
	})

	t.Run("cancel by run id alone", func(t *testing.T) {
		reg := NewCancelRegistry()
		token := reg.Register("bench-1", "run-1")

		if !reg.CancelByRunID("run-1") {
			t.Fatal("CancelByRunID should find the token")
		}
		if !token.IsCancelled() {
			t.Fatal("token should be cancelled")
		}
		if reg.CancelByRunID("run-2") {
			t.Fatal("CancelByRunID should report false for an unknown run")
		}
	})

	t.Run("active lists registered keys", func(t *testing.T) {
		reg := NewCancelRegistry()
		reg.Register("bench-1", "run-1")
		reg.Register("bench-2", "run-2")

		if got := len(reg.Active()); got != 2 {
			t.Fatalf("Active() returned %d keys, want 2", got)
		}

		reg.Release("bench-1", "run-1")
		active := reg.Active()
		if len(active) != 1 || active[0].RunID != "run-2" {
			t.Fatalf("Active() = %v", active)
		}
	})

	t.Run("cancel is idempotent", func(t *testing.T) {
		token := &CancelToken{}
		token.Cancel()
		token.Cancel()
		if !token.IsCancelled() {
			t.Fatal("token should stay cancelled")
		}
	})
}
