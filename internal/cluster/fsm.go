// Package cluster provides Raft-based replication of the live playhead so
// that several m3u8kit processes serve the same live window.
package cluster

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"sync"

	"github.com/agleyzer/m3u8kit/internal/live"
	"github.com/agleyzer/m3u8kit/pkg/logger"
	"github.com/hashicorp/raft"
)

func init() {
	// Register types for gob encoding/decoding
	gob.Register(AdvanceCommand{})
	gob.Register(InitializeCommand{})
}

// PlayheadState represents the shared state across all cluster nodes.
type PlayheadState struct {
	// Position is the playhead position in milliseconds.
	Position int64
	// Duration is the loop duration in milliseconds.
	Duration int64
	// Loops counts how many times the playhead wrapped.
	Loops uint64
}

// CommandType identifies the type of Raft command.
type CommandType uint8

const (
	// CommandAdvance advances the playhead.
	CommandAdvance CommandType = 1
	// CommandInitialize initializes the FSM state.
	CommandInitialize CommandType = 2
)

// Command represents a Raft log command.
type Command struct {
	Type CommandType
	Data any
}

// AdvanceCommand moves the playhead forward.
type AdvanceCommand struct {
	// Step is the advance in milliseconds.
	Step int64
}

// InitializeCommand sets the initial state.
type InitializeCommand struct {
	State PlayheadState
}

// PlayheadFSM implements the raft.FSM interface for playhead state.
type PlayheadFSM struct {
	mu     sync.RWMutex
	state  PlayheadState
	logger *logger.Logger
}

// NewPlayheadFSM creates a new PlayheadFSM.
func NewPlayheadFSM(log *logger.Logger) *PlayheadFSM {
	return &PlayheadFSM{logger: log}
}

// Apply applies a Raft log entry to the FSM.
func (f *PlayheadFSM) Apply(log *raft.Log) any {
	var cmd Command
	if err := gob.NewDecoder(bytes.NewReader(log.Data)).Decode(&cmd); err != nil {
		f.logger.WithError(err).Errorw("failed to decode command")
		return fmt.Errorf("decode command: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch cmd.Type {
	case CommandAdvance:
		return f.applyAdvance(cmd.Data)
	case CommandInitialize:
		return f.applyInitialize(cmd.Data)
	default:
		f.logger.Errorw("unknown command type", "type", cmd.Type)
		return fmt.Errorf("unknown command type: %d", cmd.Type)
	}
}

// applyAdvance moves the playhead, wrapping at the loop duration.
func (f *PlayheadFSM) applyAdvance(data any) any {
	advCmd, ok := data.(AdvanceCommand)
	if !ok {
		return fmt.Errorf("invalid advance command data")
	}

	var wrapped uint64
	f.state.Position, wrapped = live.Wrap(f.state.Position, advCmd.Step, f.state.Duration)
	f.state.Loops += wrapped
	f.logger.Debugw("advanced playhead", "position", f.state.Position, "loops", f.state.Loops)

	return nil
}

// applyInitialize sets the initial FSM state.
func (f *PlayheadFSM) applyInitialize(data any) any {
	initCmd, ok := data.(InitializeCommand)
	if !ok {
		return fmt.Errorf("invalid initialize command data")
	}

	f.state = initCmd.State
	f.logger.Infow("initialized FSM state", "duration", f.state.Duration, "position", f.state.Position)
	return nil
}

// Snapshot returns an FSMSnapshot for creating a point-in-time snapshot.
func (f *PlayheadFSM) Snapshot() (raft.FSMSnapshot, error) {
	return &fsmSnapshot{state: f.GetState()}, nil
}

// Restore restores the FSM state from a snapshot.
func (f *PlayheadFSM) Restore(snapshot io.ReadCloser) error {
	defer snapshot.Close()

	var state PlayheadState
	if err := gob.NewDecoder(snapshot).Decode(&state); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	f.mu.Lock()
	f.state = state
	f.mu.Unlock()

	f.logger.Infow("restored FSM state from snapshot", "duration", state.Duration, "position", state.Position)
	return nil
}

// GetState returns a copy of the current FSM state.
func (f *PlayheadFSM) GetState() PlayheadState {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

// fsmSnapshot implements raft.FSMSnapshot.
type fsmSnapshot struct {
	state PlayheadState
}

// Persist writes the snapshot to the given sink.
func (s *fsmSnapshot) Persist(sink raft.SnapshotSink) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s.state); err != nil {
		sink.Cancel()
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if _, err := sink.Write(buf.Bytes()); err != nil {
		sink.Cancel()
		return fmt.Errorf("write snapshot: %w", err)
	}

	return sink.Close()
}

// Release releases any resources held by the snapshot.
func (s *fsmSnapshot) Release() {}

// EncodeCommand encodes a command for Raft submission.
func EncodeCommand(cmd Command) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cmd); err != nil {
		return nil, fmt.Errorf("encode command: %w", err)
	}
	return buf.Bytes(), nil
}
