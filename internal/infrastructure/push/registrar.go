// Package push implements the best-effort device registration adapter for
// out-of-band notification delivery. Capability is checked up front and every
// outcome is a structured tri-state result; callers never inspect error text.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/clubly/loyalty-agent/internal/core/ports"
)

const stateFile = "push-binding.json"

// TokenSource fetches the user-scoped signed token used to bind the push
// identity. Implemented by the REST client.
type TokenSource interface {
	BeamsToken(ctx context.Context, userID int64) (string, error)
}

// Registrar binds the device's push identity to a user. An empty instance id
// or an unwritable state directory means the environment does not support
// push; that is reported as unsupported, never as an error.
type Registrar struct {
	instanceID string
	stateDir   string
	tokens     TokenSource
	log        zerolog.Logger
}

func NewRegistrar(instanceID, stateDir string, tokens TokenSource, log zerolog.Logger) *Registrar {
	return &Registrar{
		instanceID: instanceID,
		stateDir:   stateDir,
		tokens:     tokens,
		log:        log,
	}
}

// Supported reports whether push registration can work at all here.
func (r *Registrar) Supported() bool {
	if r.instanceID == "" || r.stateDir == "" {
		return false
	}
	if err := os.MkdirAll(r.stateDir, 0o700); err != nil {
		return false
	}
	return true
}

type binding struct {
	InstanceID string    `json:"instance_id"`
	UserID     int64     `json:"user_id"`
	Token      string    `json:"token"`
	BoundAt    time.Time `json:"bound_at"`
}

// Register obtains the user-scoped signed token and records the binding.
func (r *Registrar) Register(ctx context.Context, userID int64) (ports.PushResult, error) {
	if !r.Supported() {
		return ports.PushUnsupported, nil
	}

	token, err := r.tokens.BeamsToken(ctx, userID)
	if err != nil {
		return ports.PushFailed, err
	}

	b := binding{
		InstanceID: r.instanceID,
		UserID:     userID,
		Token:      token,
		BoundAt:    time.Now().UTC(),
	}
	buf, err := json.Marshal(b)
	if err != nil {
		return ports.PushFailed, err
	}
	if err := os.WriteFile(r.statePath(), buf, 0o600); err != nil {
		return ports.PushFailed, err
	}

	return ports.PushRegistered, nil
}

// Clear removes the recorded binding. Already-cleared or unsupported states
// are not errors.
func (r *Registrar) Clear(context.Context) error {
	if r.instanceID == "" || r.stateDir == "" {
		return nil
	}
	if err := os.Remove(r.statePath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (r *Registrar) statePath() string {
	return filepath.Join(r.stateDir, stateFile)
}
