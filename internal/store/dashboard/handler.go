package dashboard

import (
	"encoding/json"
	"log"

	"github.com/Jana-haikel/Task-manager/internal/store/sync"
)

// MutationData describes one mutation.
type MutationData struct {
	Table  string `json:"table"`
	Action string `json:"action"`
	ID     string `json:"id,omitempty"`
	Count  int    `json:"count"`          // records in the refreshed mirror
	Error  string `json:"error,omitempty"` // set on partial success
}

// SyncCompleteData describes a full resync.
type SyncCompleteData struct {
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

// DriftData describes a drift check.
type DriftData struct {
	InSync        bool                       `json:"inSync"`
	ContentInSync *bool                      `json:"contentInSync,omitempty"`
	Tables        map[string]sync.TableDrift `json:"perTable"`
}

// Handler turns orchestrator events into dashboard messages.
// It implements sync.Observer.
type Handler struct {
	server *Server
	logger *log.Logger
}

// NewHandler creates a new event handler connected to a dashboard server
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{server: server, logger: logger}
}

// OnEvent implements sync.Observer.
func (h *Handler) OnEvent(e sync.Event) {
	msgType, data, ok := h.format(e)
	if !ok {
		return
	}

	raw, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal %s data: %v", msgType, err)
		return
	}

	h.server.Broadcast(Message{
		Type:      msgType,
		Timestamp: e.Time,
		Data:      raw,
	})
}

func (h *Handler) format(e sync.Event) (MessageType, any, bool) {
	switch e.Kind {
	case sync.EventMutation:
		return MessageTypeMutation, MutationData{
			Table:  e.Table,
			Action: e.Action,
			ID:     e.ID,
			Count:  e.Count,
			Error:  e.Error,
		}, true

	case sync.EventSync:
		return MessageTypeSyncComplete, SyncCompleteData{
			Count: e.Count,
			Error: e.Error,
		}, true

	case sync.EventDrift:
		if e.Report == nil {
			return "", nil, false
		}
		return MessageTypeDrift, DriftData{
			InSync:        e.Report.InSync,
			ContentInSync: e.Report.ContentInSync,
			Tables:        e.Report.Tables,
		}, true

	default:
		h.logger.Printf("Ignoring unknown event kind %q", e.Kind)
		return "", nil, false
	}
}
