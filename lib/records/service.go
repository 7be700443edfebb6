package records

import (
	"fmt"
	"sync"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("records")

const (
	// DefaultListLimit is used by ListPatientRecords when no limit is given
	DefaultListLimit = 100
	// MaxListLimit caps the number of records returned by a single list call
	MaxListLimit = 1000
)

// IRecordService is the set of operations offered by a patient record registry.
// It is implemented by the local Service and by the RPC client.
type IRecordService interface {
	// GetPatientRecord returns the record with the given id or a *NotFoundError
	GetPatientRecord(id uint64) (Record, error)

	// AddPatientRecord assigns the next id and stores a new record
	AddPatientRecord(payload Payload) (Record, error)

	// UpdatePatientRecord overwrites name and complaint of an existing record.
	// The id is kept. A missing record yields a *NotFoundError.
	UpdatePatientRecord(id uint64, payload Payload) (Record, error)

	// DeletePatientRecord removes a record and returns its last value.
	// A missing record yields a *NotFoundError and nothing is changed.
	DeletePatientRecord(id uint64) (Record, error)

	// ListPatientRecords returns up to limit records with an id greater than after,
	// in ascending id order. A limit of 0 selects DefaultListLimit.
	ListPatientRecords(after uint64, limit int) ([]Record, error)
}

// Service is a patient record registry backed by a single store.
// The handlers of one Service never run concurrently.
type Service struct {
	mu    sync.Mutex
	store store.IStore
}

// NewService creates a registry that keeps its counter and records in st
func NewService(st store.IStore) *Service {
	return &Service{store: st}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see IRecordService)
// --------------------------------------------------------------------------

func (s *Service) GetPatientRecord(id uint64) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok, err := s.store.Get(RecordKey(id))
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, NewNotFoundError(fmt.Sprintf("Patient record with id=%d not found", id))
	}
	return decodeRecord(data)
}

func (s *Service) AddPatientRecord(payload Payload) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.store.Increment(CounterKey)
	if err != nil {
		log.Errorf("failed to issue a new record id: %v", err)
		return Record{}, fmt.Errorf("failed to issue record id: %w", err)
	}

	rec := Record{ID: id, Name: payload.Name, Complaint: payload.Complaint}
	data, err := encodeRecord(rec)
	if err != nil {
		return Record{}, err
	}
	if err := s.store.Set(RecordKey(id), data); err != nil {
		return Record{}, err
	}

	log.Debugf("added patient record id=%d", id)
	return rec, nil
}

func (s *Service) UpdatePatientRecord(id uint64, payload Payload) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := Record{ID: id, Name: payload.Name, Complaint: payload.Complaint}
	data, err := encodeRecord(rec)
	if err != nil {
		return Record{}, err
	}

	// the existence check and the write happen atomically inside the store
	ok, err := s.store.SetIfPresent(RecordKey(id), data)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, NewNotFoundError(fmt.Sprintf("Couldn't update patient record with id=%d. Record not found", id))
	}
	return rec, nil
}

func (s *Service) DeletePatientRecord(id uint64) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok, err := s.store.Delete(RecordKey(id))
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, NewNotFoundError(fmt.Sprintf("Couldn't delete patient record with id=%d. Record not found.", id))
	}

	log.Debugf("deleted patient record id=%d", id)
	return decodeRecord(old)
}

func (s *Service) ListPatientRecords(after uint64, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.store.Scan(KeyPrefix, RecordKey(after), limit)
	if err != nil {
		return nil, err
	}

	recs := make([]Record, 0, len(entries))
	for _, e := range entries {
		rec, err := decodeRecord(e.Value)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", e.Key, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// LastIssuedID returns the current value of the id counter (0 if no id was issued yet)
func (s *Service) LastIssuedID() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, _, err := s.store.Get(CounterKey)
	if err != nil {
		return 0, err
	}
	return store.DecodeCounter(data)
}
