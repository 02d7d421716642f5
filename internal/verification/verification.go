// Package verification reconciles a presented credential against ledger state
// and storage content, classifying it into a fixed set of outcomes. The
// classification chain is a pure function over injected registry and storage
// reads so every branch is unit-testable without live collaborators.
package verification

import (
	"certledger/internal/hashing"
	"certledger/internal/registry/models"
	"certledger/internal/storage"
)

// Status is the classification of a verification request.
type Status string

const (
	// StatusValid: the credential matches an active ledger record.
	StatusValid Status = "VALID"
	// StatusRevoked: the credential is authentic but has been revoked.
	StatusRevoked Status = "REVOKED"
	// StatusTampered: the uploaded bytes differ from the stored original.
	StatusTampered Status = "TAMPERED"
	// StatusInvalid: the document corresponds to no verifiable record.
	StatusInvalid Status = "INVALID"
)

// HintSupplyID is returned when a document misses the hash index and no
// candidate ID was supplied to fall back on.
const HintSupplyID = "no matching record for this document; retry with the certificate ID to verify against stored content"

// Result is the outcome of a verification request.
type Result struct {
	Status       Status              `json:"status"`
	Certificate  *models.Certificate `json:"certificate,omitempty"`
	UploadedHash hashing.Digest      `json:"uploaded_hash,omitempty"`
	ExpectedHash hashing.Digest      `json:"expected_hash,omitempty"`
	RetrievalURL string              `json:"retrieval_url,omitempty"`
	Hint         string              `json:"hint,omitempty"`
}

// ClassifyInput carries the uploaded document's digest, the optional
// caller-supplied candidate ID, and the registry/storage views the chain
// consults. The views are plain functions so the chain itself stays pure.
type ClassifyInput struct {
	UploadedHash hashing.Digest
	CandidateID  *uint64

	LookupByHash func(digest hashing.Digest) (exists, valid bool, err error)
	LookupByID   func(id uint64) (models.Certificate, error)
	Fetch        func(ref storage.Ref) ([]byte, error)
}

// Classify runs the ordered decision chain for document verification:
//
//  1. Look the uploaded hash up in the registry index. A hit alone proves the
//     uploaded bytes are byte-identical to what was hashed at issuance, so the
//     record's revocation flag decides VALID vs REVOKED with no further I/O.
//  2. On a miss with a candidate ID, fetch that record's stored original and
//     compare hashes: equal means authentic (record flag decides), unequal
//     means TAMPERED with both hashes reported, and any lookup or fetch
//     failure means INVALID.
//  3. On a miss with no candidate ID, INVALID with a hint to retry by ID.
func Classify(in ClassifyInput) Result {
	exists, valid, err := in.LookupByHash(in.UploadedHash)
	if err == nil && exists {
		status := StatusValid
		if !valid {
			status = StatusRevoked
		}
		return Result{Status: status, UploadedHash: in.UploadedHash}
	}

	if in.CandidateID == nil {
		return Result{
			Status:       StatusInvalid,
			UploadedHash: in.UploadedHash,
			Hint:         HintSupplyID,
		}
	}

	cert, err := in.LookupByID(*in.CandidateID)
	if err != nil {
		return Result{Status: StatusInvalid, UploadedHash: in.UploadedHash}
	}

	stored, err := in.Fetch(storage.Ref(cert.StorageRef))
	if err != nil {
		return Result{Status: StatusInvalid, UploadedHash: in.UploadedHash}
	}

	referenceHash := hashing.Sum(stored)
	if !referenceHash.Equal(in.UploadedHash) {
		return Result{
			Status:       StatusTampered,
			UploadedHash: in.UploadedHash,
			ExpectedHash: referenceHash,
		}
	}

	// The hash index missed but the stored original matches: the uploaded
	// bytes are authentic and the record's flag decides the outcome.
	status := StatusValid
	if cert.Revoked {
		status = StatusRevoked
	}
	return Result{
		Status:       status,
		Certificate:  &cert,
		UploadedHash: in.UploadedHash,
		RetrievalURL: storage.RetrievalURL(storage.Ref(cert.StorageRef)),
	}
}
