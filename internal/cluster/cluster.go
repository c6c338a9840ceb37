package cluster

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/agleyzer/m3u8kit/pkg/logger"
	"github.com/hashicorp/raft"
)

// ErrNotLeader is returned when a write is submitted to a follower.
var ErrNotLeader = errors.New("not the cluster leader")

// Manager manages a Raft cluster that replicates the live playhead.
// It implements live.Playhead.
type Manager struct {
	config    Config
	raft      *raft.Raft
	fsm       *PlayheadFSM
	transport *raft.NetworkTransport
	logger    *logger.Logger
	mu        sync.RWMutex
	shutdown  bool
}

// NewManager creates a new cluster manager.
func NewManager(config Config, log *logger.Logger) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Manager{
		config: config,
		fsm:    NewPlayheadFSM(log),
		logger: log,
	}, nil
}

// Start initializes and starts the Raft node and bootstraps the cluster
// from the configured peers.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.raft != nil {
		return fmt.Errorf("cluster already started")
	}

	raftConfig := raft.DefaultConfig()
	// Use bind address as LocalID for consistency with bootstrap configuration
	raftConfig.LocalID = raft.ServerID(m.config.BindAddr)
	raftConfig.HeartbeatTimeout = m.config.HeartbeatTimeout
	raftConfig.ElectionTimeout = m.config.ElectionTimeout
	raftConfig.LeaderLeaseTimeout = m.config.HeartbeatTimeout
	raftConfig.SnapshotInterval = m.config.SnapshotInterval
	raftConfig.SnapshotThreshold = m.config.SnapshotThreshold
	raftConfig.Logger = newRaftLogger(m.logger)

	// In-memory stores: the playhead is not persisted across restarts.
	logStore := raft.NewInmemStore()
	stableStore := raft.NewInmemStore()
	snapshotStore := raft.NewInmemSnapshotStore()

	addr, err := net.ResolveTCPAddr("tcp", m.config.BindAddr)
	if err != nil {
		return fmt.Errorf("resolve bind address: %w", err)
	}

	transport, err := raft.NewTCPTransport(m.config.BindAddr, addr, 3, 10*time.Second, nil)
	if err != nil {
		return fmt.Errorf("create transport: %w", err)
	}
	m.transport = transport

	r, err := raft.NewRaft(raftConfig, m.fsm, logStore, stableStore, snapshotStore, transport)
	if err != nil {
		transport.Close()
		return fmt.Errorf("create raft: %w", err)
	}
	m.raft = r

	configuration := raft.Configuration{
		Servers: make([]raft.Server, 0, len(m.config.Peers)),
	}
	for _, peer := range m.config.Peers {
		// Use peer address as both ID and address for simplicity
		configuration.Servers = append(configuration.Servers, raft.Server{
			ID:       raft.ServerID(peer),
			Address:  raft.ServerAddress(peer),
			Suffrage: raft.Voter,
		})
	}

	future := m.raft.BootstrapCluster(configuration)
	if err := future.Error(); err != nil && err != raft.ErrCantBootstrap {
		// Continue anyway - node might be joining existing cluster
		m.logger.WithError(err).Errorw("failed to bootstrap cluster")
	}

	m.logger.Infow("cluster started",
		"node_id", m.config.RaftID,
		"bind", m.config.BindAddr,
		"peers", len(m.config.Peers))

	return nil
}

// apply submits a command and waits for it to be committed.
func (m *Manager) apply(cmd Command) error {
	m.mu.RLock()
	if m.shutdown {
		m.mu.RUnlock()
		return fmt.Errorf("cluster is shut down")
	}
	r := m.raft
	m.mu.RUnlock()

	if r == nil {
		return fmt.Errorf("cluster not started")
	}

	if r.State() != raft.Leader {
		return ErrNotLeader
	}

	data, err := EncodeCommand(cmd)
	if err != nil {
		return err
	}

	future := r.Apply(data, m.config.ApplyTimeout)
	if err := future.Error(); err != nil {
		return fmt.Errorf("apply command: %w", err)
	}
	if resp, ok := future.Response().(error); ok && resp != nil {
		return fmt.Errorf("apply command: %w", resp)
	}

	return nil
}

// Initialize sets the replicated state. Only the leader may initialize.
func (m *Manager) Initialize(state PlayheadState) error {
	return m.apply(Command{
		Type: CommandInitialize,
		Data: InitializeCommand{State: state},
	})
}

// Advance implements live.Playhead. It fails with ErrNotLeader on followers.
func (m *Manager) Advance(step int64) error {
	if step < 0 {
		return fmt.Errorf("cannot advance by negative step %d", step)
	}
	return m.apply(Command{
		Type: CommandAdvance,
		Data: AdvanceCommand{Step: step},
	})
}

// Position implements live.Playhead with the locally applied state.
func (m *Manager) Position() (int64, uint64) {
	state := m.fsm.GetState()
	return state.Position, state.Loops
}

// GetState returns the current FSM state.
func (m *Manager) GetState() PlayheadState {
	return m.fsm.GetState()
}

// IsLeader returns true if this node is the Raft leader.
func (m *Manager) IsLeader() bool {
	m.mu.RLock()
	r := m.raft
	m.mu.RUnlock()

	if r == nil {
		return false
	}

	return r.State() == raft.Leader
}

// LeaderAddr returns the address of the current Raft leader.
func (m *Manager) LeaderAddr() string {
	m.mu.RLock()
	r := m.raft
	m.mu.RUnlock()

	if r == nil {
		return ""
	}

	leaderAddr, _ := r.LeaderWithID()
	return string(leaderAddr)
}

// State returns the current Raft state.
func (m *Manager) State() string {
	m.mu.RLock()
	r := m.raft
	m.mu.RUnlock()

	if r == nil {
		return "NotStarted"
	}

	return r.State().String()
}

// Peers returns the list of peer addresses.
func (m *Manager) Peers() []string {
	return m.config.Peers
}

// NodeID returns this node's Raft ID.
func (m *Manager) NodeID() string {
	return m.config.RaftID
}

// Shutdown gracefully shuts down the Raft node.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shutdown {
		return nil
	}

	m.shutdown = true

	if m.raft != nil {
		if err := m.raft.Shutdown().Error(); err != nil {
			m.logger.WithError(err).Errorw("failed to shutdown raft")
			return fmt.Errorf("shutdown raft: %w", err)
		}
	}

	if m.transport != nil {
		if err := m.transport.Close(); err != nil {
			m.logger.WithError(err).Errorw("failed to close transport")
			return fmt.Errorf("close transport: %w", err)
		}
	}

	m.logger.Infow("cluster shut down")
	return nil
}

// WaitForLeader blocks until a leader is elected or context is canceled.
func (m *Manager) WaitForLeader(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if m.LeaderAddr() != "" {
				return nil
			}
		}
	}
}

// Stats returns cluster information for health reporting.
func (m *Manager) Stats() map[string]interface{} {
	return map[string]interface{}{
		"node_id":   m.NodeID(),
		"state":     m.State(),
		"is_leader": m.IsLeader(),
		"leader":    m.LeaderAddr(),
		"peers":     len(m.config.Peers),
	}
}
