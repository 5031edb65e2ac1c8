package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb/v2"
	"github.com/rs/zerolog"

	"github.com/groupnest/groupnest/internal/domain/negotiation"
)

// The in-process hub covers one server process only. When the service runs
// as multiple processes, the relay replicates every published event through
// a Raft log; each process's FSM hands the event to its local hub, so
// clients connected anywhere see it. Presence stays per-process: each node
// reports the connections it holds.

// LocalDelivery is where replicated events land on each node.
type LocalDelivery interface {
	Publish(sessionID uuid.UUID, event *negotiation.Event, excludeUserID string) negotiation.PublishResult
}

// Config defines one relay node runtime.
type Config struct {
	NodeID         string
	RaftAddr       string
	DataDir        string
	Bootstrap      bool
	SnapshotRetain int
	ApplyTimeout   time.Duration
	// PeerHTTP maps node IDs to base HTTP URLs so a follower can forward a
	// publish to the current leader.
	PeerHTTP map[string]string
}

func (c Config) normalized() (Config, error) {
	c.NodeID = strings.TrimSpace(c.NodeID)
	c.RaftAddr = strings.TrimSpace(c.RaftAddr)
	c.DataDir = strings.TrimSpace(c.DataDir)
	if c.NodeID == "" {
		return c, errors.New("node_id is required")
	}
	if c.RaftAddr == "" {
		return c, errors.New("raft_addr is required")
	}
	if c.DataDir == "" {
		return c, errors.New("data_dir is required")
	}
	if c.SnapshotRetain <= 0 {
		c.SnapshotRetain = 2
	}
	if c.ApplyTimeout <= 0 {
		c.ApplyTimeout = 5 * time.Second
	}
	return c, nil
}

// Envelope is one replicated publish.
type Envelope struct {
	SessionID     uuid.UUID          `json:"sessionId"`
	Event         *negotiation.Event `json:"event"`
	ExcludeUserID string             `json:"excludeUserId,omitempty"`
}

// Node wraps Raft plus the delivery FSM. It implements
// negotiation.Broadcaster; a successful Publish means the event was accepted
// into the replicated log, with per-connection delivery happening on each
// node as its FSM applies the entry.
type Node struct {
	id           string
	raftAddr     string
	applyTimeout time.Duration
	peerHTTP     map[string]string

	raft      *raft.Raft
	transport *raft.NetworkTransport
	machine   *fsm
	local     LocalDelivery
	httpc     *http.Client
	logger    zerolog.Logger
}

// NewNode creates a relay node delivering replicated events to local.
func NewNode(cfg Config, local LocalDelivery, logger zerolog.Logger) (*Node, error) {
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}

	machine := &fsm{local: local, applied: make(map[string]uint64)}

	logStore, err := raftboltdb.NewBoltStore(filepath.Join(cfg.DataDir, "relay-log.bolt"))
	if err != nil {
		return nil, err
	}
	stableStore, err := raftboltdb.NewBoltStore(filepath.Join(cfg.DataDir, "relay-stable.bolt"))
	if err != nil {
		return nil, err
	}
	snapshotStore, err := raft.NewFileSnapshotStore(cfg.DataDir, cfg.SnapshotRetain, os.Stderr)
	if err != nil {
		return nil, err
	}
	transport, err := raft.NewTCPTransport(cfg.RaftAddr, nil, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return nil, err
	}

	raftCfg := raft.DefaultConfig()
	raftCfg.LocalID = raft.ServerID(cfg.NodeID)
	r, err := raft.NewRaft(raftCfg, machine, logStore, stableStore, snapshotStore, transport)
	if err != nil {
		return nil, err
	}

	n := &Node{
		id:           cfg.NodeID,
		raftAddr:     cfg.RaftAddr,
		applyTimeout: cfg.ApplyTimeout,
		peerHTTP:     cfg.PeerHTTP,
		raft:         r,
		transport:    transport,
		machine:      machine,
		local:        local,
		httpc:        &http.Client{Timeout: 5 * time.Second},
		logger:       logger.With().Str("service", "relay").Logger(),
	}

	if cfg.Bootstrap {
		hasState, err := raft.HasExistingState(logStore, stableStore, snapshotStore)
		if err != nil {
			return nil, err
		}
		if !hasState {
			future := r.BootstrapCluster(raft.Configuration{Servers: []raft.Server{{
				ID:      raft.ServerID(cfg.NodeID),
				Address: raft.ServerAddress(cfg.RaftAddr),
			}}})
			if err := future.Error(); err != nil && !errors.Is(err, raft.ErrCantBootstrap) {
				return nil, err
			}
		}
	}

	return n, nil
}

// Publish implements negotiation.Broadcaster over the replicated log. On the
// leader the envelope is applied directly; a follower forwards to the
// leader's HTTP relay endpoint. If no route to the leader exists the event
// degrades to local-only delivery — clients on other nodes recover through
// reconnect-and-resync, which the design already requires.
func (n *Node) Publish(sessionID uuid.UUID, event *negotiation.Event, excludeUserID string) negotiation.PublishResult {
	env := Envelope{SessionID: sessionID, Event: event, ExcludeUserID: excludeUserID}
	if n.IsLeader() {
		if err := n.ApplyEnvelope(env); err != nil {
			n.logger.Error().Err(err).Str("session_id", sessionID.String()).Msg("relay apply failed, delivering locally")
			return n.local.Publish(sessionID, event, excludeUserID)
		}
		return negotiation.PublishResult{}
	}

	if err := n.forwardToLeader(env); err != nil {
		n.logger.Warn().Err(err).Str("session_id", sessionID.String()).Msg("relay forward failed, delivering locally")
		return n.local.Publish(sessionID, event, excludeUserID)
	}
	return negotiation.PublishResult{}
}

// ApplyEnvelope replicates one envelope. Leader only; the HTTP layer calls
// this for forwarded publishes.
func (n *Node) ApplyEnvelope(env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	future := n.raft.Apply(data, n.applyTimeout)
	if err := future.Error(); err != nil {
		return err
	}
	if applyErr, ok := future.Response().(error); ok && applyErr != nil {
		return applyErr
	}
	return nil
}

func (n *Node) forwardToLeader(env Envelope) error {
	leaderID := n.LeaderNodeID()
	if leaderID == "" {
		return errors.New("no leader elected")
	}
	base, ok := n.peerHTTP[leaderID]
	if !ok {
		return fmt.Errorf("no http route for leader %s", leaderID)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	resp, err := n.httpc.Post(strings.TrimRight(base, "/")+"/v1/relay/events", "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("leader returned %d", resp.StatusCode)
	}
	return nil
}

// AddVoter joins or updates one voter in the cluster config.
func (n *Node) AddVoter(nodeID, raftAddr string) error {
	nodeID = strings.TrimSpace(nodeID)
	raftAddr = strings.TrimSpace(raftAddr)
	if nodeID == "" || raftAddr == "" {
		return errors.New("node_id and raft_addr are required")
	}
	cfgFuture := n.raft.GetConfiguration()
	if err := cfgFuture.Error(); err != nil {
		return err
	}
	for _, srv := range cfgFuture.Configuration().Servers {
		if srv.ID == raft.ServerID(nodeID) && srv.Address == raft.ServerAddress(raftAddr) {
			return nil
		}
		if srv.ID == raft.ServerID(nodeID) || srv.Address == raft.ServerAddress(raftAddr) {
			if err := n.raft.RemoveServer(srv.ID, 0, 10*time.Second).Error(); err != nil {
				return err
			}
		}
	}
	return n.raft.AddVoter(raft.ServerID(nodeID), raft.ServerAddress(raftAddr), 0, 10*time.Second).Error()
}

// RemoveServer removes one server by node ID.
func (n *Node) RemoveServer(nodeID string) error {
	nodeID = strings.TrimSpace(nodeID)
	if nodeID == "" {
		return errors.New("node_id is required")
	}
	return n.raft.RemoveServer(raft.ServerID(nodeID), 0, 10*time.Second).Error()
}

func (n *Node) ID() string       { return n.id }
func (n *Node) RaftAddr() string { return n.raftAddr }
func (n *Node) IsLeader() bool   { return n.raft.State() == raft.Leader }
func (n *Node) State() string    { return n.raft.State().String() }

// LeaderNodeID returns the leader ID if available.
func (n *Node) LeaderNodeID() string {
	_, leaderID := n.raft.LeaderWithID()
	return strings.TrimSpace(string(leaderID))
}

func (n *Node) Stats() map[string]string {
	stats := n.raft.Stats()
	out := make(map[string]string, len(stats))
	for k, v := range stats {
		out[k] = v
	}
	return out
}

// Shutdown stops Raft and the transport.
func (n *Node) Shutdown() error {
	var shutdownErr error
	if n.raft != nil {
		if err := n.raft.Shutdown().Error(); err != nil {
			shutdownErr = err
		}
	}
	if n.transport != nil {
		_ = n.transport.Close()
	}
	return shutdownErr
}
