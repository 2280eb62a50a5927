package push

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/clubly/loyalty-agent/internal/core/ports"
)

type stubTokenSource struct {
	token string
	err   error
}

func (s *stubTokenSource) BeamsToken(context.Context, int64) (string, error) {
	return s.token, s.err
}

func TestRegistrar_Unsupported(t *testing.T) {
	r := NewRegistrar("", t.TempDir(), &stubTokenSource{}, zerolog.Nop())
	if r.Supported() {
		t.Fatalf("empty instance id must be unsupported")
	}

	result, err := r.Register(context.Background(), 7)
	if err != nil || result != ports.PushUnsupported {
		t.Fatalf("expected unsupported without error, got %s %v", result, err)
	}
}

func TestRegistrar_RegisterWritesBinding(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistrar("inst-1", dir, &stubTokenSource{token: "signed-token"}, zerolog.Nop())

	result, err := r.Register(context.Background(), 7)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if result != ports.PushRegistered {
		t.Fatalf("expected registered, got %s", result)
	}

	buf, err := os.ReadFile(filepath.Join(dir, stateFile))
	if err != nil {
		t.Fatalf("binding file unreadable: %v", err)
	}
	var b binding
	if err := json.Unmarshal(buf, &b); err != nil {
		t.Fatalf("binding file undecodable: %v", err)
	}
	if b.InstanceID != "inst-1" || b.UserID != 7 || b.Token != "signed-token" {
		t.Fatalf("unexpected binding: %+v", b)
	}
}

func TestRegistrar_TokenFetchFailure(t *testing.T) {
	wantErr := errors.New("backend unavailable")
	r := NewRegistrar("inst-1", t.TempDir(), &stubTokenSource{err: wantErr}, zerolog.Nop())

	result, err := r.Register(context.Background(), 7)
	if result != ports.PushFailed || !errors.Is(err, wantErr) {
		t.Fatalf("expected failed with cause, got %s %v", result, err)
	}
}

func TestRegistrar_ClearIdempotent(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistrar("inst-1", dir, &stubTokenSource{token: "signed-token"}, zerolog.Nop())

	if _, err := r.Register(context.Background(), 7); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := r.Clear(context.Background()); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, stateFile)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected binding removed, got %v", err)
	}
	if err := r.Clear(context.Background()); err != nil {
		t.Fatalf("second clear must be a no-op: %v", err)
	}
}
