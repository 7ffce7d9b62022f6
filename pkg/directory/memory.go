package directory

import (
	"context"
	"sync"
)

// MemoryReader is an in-memory Reader for unit tests and local wiring.
type MemoryReader struct {
	mu          sync.RWMutex
	principals  map[string]Principal
	firms       map[string]Firm
	members     map[string]Member // key: firmID + "/" + principalID
	unavailable bool
}

// NewMemoryReader creates an empty in-memory reader.
func NewMemoryReader() *MemoryReader {
	return &MemoryReader{
		principals: make(map[string]Principal),
		firms:      make(map[string]Firm),
		members:    make(map[string]Member),
	}
}

// AddPrincipal stores a principal.
func (r *MemoryReader) AddPrincipal(p Principal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.principals[p.ID] = p
}

// AddFirm stores a firm.
func (r *MemoryReader) AddFirm(f Firm) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.firms[f.ID] = f
}

// AddMember stores a membership record.
func (r *MemoryReader) AddMember(m Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[m.FirmID+"/"+m.PrincipalID] = m
}

// SetUnavailable makes every lookup return ErrUnavailable, simulating a
// data-layer outage.
func (r *MemoryReader) SetUnavailable(down bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unavailable = down
}

// GetPrincipal returns the principal with the given id.
func (r *MemoryReader) GetPrincipal(ctx context.Context, principalID string) (*Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.unavailable {
		return nil, ErrUnavailable
	}
	p, ok := r.principals[principalID]
	if !ok {
		return nil, ErrPrincipalNotFound
	}
	return &p, nil
}

// GetMember returns the membership record linking a principal to a firm.
func (r *MemoryReader) GetMember(ctx context.Context, firmID, principalID string) (*Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.unavailable {
		return nil, ErrUnavailable
	}
	m, ok := r.members[firmID+"/"+principalID]
	if !ok {
		return nil, ErrMemberNotFound
	}
	return &m, nil
}

// GetFirm returns the firm with the given id.
func (r *MemoryReader) GetFirm(ctx context.Context, firmID string) (*Firm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.unavailable {
		return nil, ErrUnavailable
	}
	f, ok := r.firms[firmID]
	if !ok {
		return nil, ErrFirmNotFound
	}
	return &f, nil
}
