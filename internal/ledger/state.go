package ledger

import (
	"maps"
	"slices"

	"certledger/internal/hashing"
	"certledger/internal/registry/models"
)

// State is the full ledger-resident registry state: the dense certificate
// table, the issuer authorization map, and the fixed admin identity. Fields
// are exported so the journal can snapshot them; mutation happens only inside
// transactions.
type State struct {
	Admin        string                    `json:"admin"`
	Certificates []models.Certificate      `json:"certificates"`
	Issuers      map[string]bool           `json:"issuers"`
	HashIndex    map[hashing.Digest]uint64 `json:"hash_index"`
}

// NewState returns genesis state with the given admin.
func NewState(admin string) *State {
	return &State{
		Admin:     admin,
		Issuers:   make(map[string]bool),
		HashIndex: make(map[hashing.Digest]uint64),
	}
}

// Clone deep-copies the state for use as a transaction working copy.
func (s *State) Clone() *State {
	return &State{
		Admin:        s.Admin,
		Certificates: slices.Clone(s.Certificates),
		Issuers:      maps.Clone(s.Issuers),
		HashIndex:    maps.Clone(s.HashIndex),
	}
}

// Count is the number of successful issuances. IDs are dense, so the valid ID
// range is always 1..Count.
func (s *State) Count() uint64 {
	return uint64(len(s.Certificates))
}

// CertificateByID returns the record for id, which must be in 1..Count.
func (s *State) CertificateByID(id uint64) (models.Certificate, bool) {
	if id < 1 || id > s.Count() {
		return models.Certificate{}, false
	}
	return s.Certificates[id-1], true
}

// CertificateByHash returns the record whose content hash matches digest.
func (s *State) CertificateByHash(digest hashing.Digest) (models.Certificate, bool) {
	id, ok := s.HashIndex[digest]
	if !ok {
		return models.Certificate{}, false
	}
	return s.CertificateByID(id)
}

// IsAuthorized reports whether identity may issue and revoke: the admin
// implicitly, or any identity with a granted flag.
func (s *State) IsAuthorized(identity string) bool {
	if identity == "" {
		return false
	}
	return identity == s.Admin || s.Issuers[identity]
}

// Append adds a freshly issued certificate and indexes its hash. The caller
// has already allocated cert.ID as Count+1.
func (s *State) Append(cert models.Certificate) {
	s.Certificates = append(s.Certificates, cert)
	s.HashIndex[cert.ContentHash] = cert.ID
}
