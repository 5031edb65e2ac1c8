package relay

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/raft"
)

// fsm hands each replicated envelope to the node's local hub. The only
// durable state is a per-session applied counter; missed events need no
// replay because clients resynchronize full state on reconnect and the
// store stays the source of truth.
type fsm struct {
	local LocalDelivery

	mu      sync.Mutex
	applied map[string]uint64
}

func (f *fsm) Apply(log *raft.Log) interface{} {
	var env Envelope
	if err := json.Unmarshal(log.Data, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.Event == nil {
		return fmt.Errorf("envelope without event")
	}

	f.mu.Lock()
	f.applied[env.SessionID.String()]++
	f.mu.Unlock()

	f.local.Publish(env.SessionID, env.Event, env.ExcludeUserID)
	return nil
}

// AppliedCount reports how many events this node applied for a session.
func (f *fsm) AppliedCount(sessionID string) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applied[sessionID]
}

func (f *fsm) Snapshot() (raft.FSMSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := json.Marshal(f.applied)
	if err != nil {
		return nil, err
	}
	return &fsmSnapshot{data: data}, nil
}

func (f *fsm) Restore(rc io.ReadCloser) error {
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	applied := make(map[string]uint64)
	if err := json.Unmarshal(data, &applied); err != nil {
		return err
	}
	f.mu.Lock()
	f.applied = applied
	f.mu.Unlock()
	return nil
}

type fsmSnapshot struct {
	data []byte
}

func (s *fsmSnapshot) Persist(sink raft.SnapshotSink) error {
	if len(s.data) == 0 {
		return sink.Close()
	}
	if _, err := sink.Write(s.data); err != nil {
		_ = sink.Cancel()
		return err
	}
	return sink.Close()
}

func (s *fsmSnapshot) Release() {}
