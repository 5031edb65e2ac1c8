package httpapi

import (
	"net/http"

	"github.com/groupnest/groupnest/internal/relay"
)

// applyRelayEvent accepts a publish forwarded from a follower. Leader only;
// a follower answers NOT_LEADER with the current leader so the caller can
// resubmit.
func (s *Server) applyRelayEvent(w http.ResponseWriter, r *http.Request) {
	if !s.relayNode.IsLeader() {
		respondJSON(w, http.StatusConflict, map[string]interface{}{
			"error":     "NOT_LEADER",
			"leader_id": s.relayNode.LeaderNodeID(),
		})
		return
	}
	var env relay.Envelope
	if err := decodeBody(r, &env); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if env.Event == nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "event is required")
		return
	}
	if err := s.relayNode.ApplyEnvelope(env); err != nil {
		respondError(w, http.StatusBadRequest, "APPLY_REJECTED", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "APPLIED"})
}

func (s *Server) relayStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"node_id":   s.relayNode.ID(),
		"state":     s.relayNode.State(),
		"leader_id": s.relayNode.LeaderNodeID(),
		"stats":     s.relayNode.Stats(),
	})
}

type relayJoinRequest struct {
	NodeID   string `json:"nodeId"`
	RaftAddr string `json:"raftAddr"`
}

func (s *Server) relayJoin(w http.ResponseWriter, r *http.Request) {
	var req relayJoinRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if err := s.relayNode.AddVoter(req.NodeID, req.RaftAddr); err != nil {
		respondError(w, http.StatusBadRequest, "JOIN_FAILED", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "JOINED", "node_id": req.NodeID})
}

type relayRemoveRequest struct {
	NodeID string `json:"nodeId"`
}

func (s *Server) relayRemove(w http.ResponseWriter, r *http.Request) {
	var req relayRemoveRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if err := s.relayNode.RemoveServer(req.NodeID); err != nil {
		respondError(w, http.StatusBadRequest, "REMOVE_FAILED", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "REMOVED", "node_id": req.NodeID})
}
