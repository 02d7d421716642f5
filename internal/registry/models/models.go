// Package models holds the ledger-resident certificate records and the events
// emitted when they change.
package models

import (
	"time"

	"certledger/internal/hashing"
)

// Certificate is the authoritative issuance record. It is immutable once
// committed, except for Revoked, which only ever transitions false to true.
type Certificate struct {
	ID          uint64         `json:"id"`
	StudentName string         `json:"student_name"`
	CourseName  string         `json:"course_name"`
	ContentHash hashing.Digest `json:"content_hash"`
	StorageRef  string         `json:"storage_ref"`
	Issuer      string         `json:"issuer"`
	IssuedAt    time.Time      `json:"issued_at"`
	Revoked     bool           `json:"revoked"`
}

// EventType identifies a registry state transition.
type EventType string

const (
	EventCertificateIssued  EventType = "certificate.issued"
	EventCertificateRevoked EventType = "certificate.revoked"
	EventIssuerAuthorized   EventType = "issuer.authorized"
)

// Event is the minimal notification payload emitted on commit. Consumers
// needing details re-query the registry by certificate ID.
type Event struct {
	Type          EventType `json:"type"`
	CertificateID uint64    `json:"certificate_id,omitempty"`
	Identity      string    `json:"identity,omitempty"`
}
