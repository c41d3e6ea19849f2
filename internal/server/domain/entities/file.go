package entities

import "time"

// FileRef is the metadata record for one uploaded attachment. Filename
// is the server-generated object-store key; OriginalName is the
// untrusted user-supplied display name.
type FileRef struct {
	ID           string    `json:"id"`
	NoteID       string    `json:"-"`
	NotePath     string    `json:"-"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Expired reports whether the attachment is past its retention window.
func (f *FileRef) Expired(now time.Time) bool {
	return !f.ExpiresAt.IsZero() && f.ExpiresAt.Before(now)
}
