package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"patchdao/core/events"
	"patchdao/core/types"
	"patchdao/native/escrow"
)

const (
	auditKeyPrefix = "escrow/audit/"
	auditIndexKey  = "escrow/audit-index"
)

// AuditRecord is the persisted snapshot of a settled contract. Attributes are
// the event payload verbatim, so the record carries exactly what the protocol
// published and nothing sealed.
type AuditRecord struct {
	ID         string            `json:"id"`
	JobID      string            `json:"jobId"`
	Outcome    string            `json:"outcome"`
	Event      string            `json:"event"`
	Attributes map[string]string `json:"attributes"`
}

// AuditStore persists one record per settled contract. It subscribes to the
// escrow engine as an emitter; only terminal events are written. Writes are
// best-effort: custody is already final when a terminal event fires, so a
// storage failure is logged and never unwinds a settlement.
type AuditStore struct {
	mu  sync.Mutex
	db  Database
	log *slog.Logger
}

// NewAuditStore wraps the given backend. A nil logger falls back to the
// default.
func NewAuditStore(db Database, log *slog.Logger) *AuditStore {
	if log == nil {
		log = slog.Default()
	}
	return &AuditStore{db: db, log: log}
}

type payloadCarrier interface {
	Event() *types.Event
}

// Emit implements the events.Emitter interface.
func (s *AuditStore) Emit(evt events.Event) {
	if s == nil || s.db == nil || evt == nil {
		return
	}
	terminal := false
	for _, eventType := range escrow.TerminalEventTypes {
		if evt.EventType() == eventType {
			terminal = true
			break
		}
	}
	if !terminal {
		return
	}
	carrier, ok := evt.(payloadCarrier)
	if !ok {
		return
	}
	payload := carrier.Event()
	if payload == nil {
		return
	}
	record := &AuditRecord{
		Event:      payload.Type,
		Attributes: payload.Attributes,
	}
	record.ID, _ = payload.Attribute("id")
	record.JobID, _ = payload.Attribute("jobId")
	record.Outcome, _ = payload.Attribute("outcome")
	if err := s.Record(record); err != nil {
		s.log.Error("audit write failed", "id", record.ID, "err", err)
	}
}

// Record persists an audit record and adds it to the index.
func (s *AuditStore) Record(record *AuditRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("storage: audit record requires an id")
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Put([]byte(auditKeyPrefix+record.ID), raw); err != nil {
		return err
	}
	index, err := s.indexLocked()
	if err != nil {
		return err
	}
	for _, id := range index {
		if id == record.ID {
			return nil
		}
	}
	index = append(index, record.ID)
	rawIndex, err := json.Marshal(index)
	if err != nil {
		return err
	}
	return s.db.Put([]byte(auditIndexKey), rawIndex)
}

// Get returns the audit record for a contract id.
func (s *AuditStore) Get(id string) (*AuditRecord, bool, error) {
	raw, err := s.db.Get([]byte(auditKeyPrefix + id))
	if err == ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	record := &AuditRecord{}
	if err := json.Unmarshal(raw, record); err != nil {
		return nil, false, err
	}
	return record, true, nil
}

// List returns every recorded contract id in insertion order.
func (s *AuditStore) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexLocked()
}

func (s *AuditStore) indexLocked() ([]string, error) {
	raw, err := s.db.Get([]byte(auditIndexKey))
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var index []string
	if err := json.Unmarshal(raw, &index); err != nil {
		return nil, err
	}
	return index, nil
}
