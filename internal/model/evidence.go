package model

import "strings"

// Evidence is a reference to a submitted evidence artifact
type Evidence struct {
	Ref      string       `json:"ref"`                 // File path or http(s) URL
	Kind     EvidenceKind `json:"kind,omitempty"`      // image, audio
	MIMEType string       `json:"mime_type,omitempty"` // e.g. image/jpeg
}

// EvidenceKind classifies an evidence artifact
type EvidenceKind string

const (
	EvidenceKindImage EvidenceKind = "image"
	EvidenceKindAudio EvidenceKind = "audio"
)

// IsRemote reports whether the reference must be fetched over HTTP
func (e Evidence) IsRemote() bool {
	return strings.HasPrefix(e.Ref, "http://") || strings.HasPrefix(e.Ref, "https://")
}

// IsZero reports whether no evidence is attached
func (e Evidence) IsZero() bool {
	return e.Ref == ""
}
