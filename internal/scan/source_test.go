package scan

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestChannelSourceEmitAndReceive(t *testing.T) {
	src := NewChannelSource(4)
	decoded, errs, err := src.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := src.Emit("ST-2024-001"); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	src.Fail(errors.New("blurry frame"))

	select {
	case got := <-decoded:
		if got != "ST-2024-001" {
			t.Errorf("decoded = %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for decoded payload")
	}
	select {
	case derr := <-errs:
		if derr == nil || derr.Error() != "blurry frame" {
			t.Errorf("decode error = %v", derr)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for decode error")
	}
}

func TestChannelSourceStopReleases(t *testing.T) {
	src := NewChannelSource(1)
	decoded, errs, err := src.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := src.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	// Stop must be idempotent.
	if err := src.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}

	if _, ok := <-decoded; ok {
		t.Error("decoded channel still open after Stop")
	}
	if _, ok := <-errs; ok {
		t.Error("error channel still open after Stop")
	}

	if err := src.Emit("ST-2024-001"); err != ErrStopped {
		t.Errorf("Emit() after Stop = %v, want ErrStopped", err)
	}
	if _, _, err := src.Start(context.Background()); err != ErrStopped {
		t.Errorf("Start() after Stop = %v, want ErrStopped", err)
	}
}

func TestChannelSourceBufferFull(t *testing.T) {
	src := NewChannelSource(1)
	if err := src.Emit("a"); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if err := src.Emit("b"); err == nil {
		t.Error("Emit() on full buffer = nil, want error")
	}
}
