package model

import "time"

// FileRecord is a versioned, typed batch of ingested cost data.
//
// Lifecycle: created pending/pending/unlocked; parsing moves ParseStatus to
// parsed or failed; each validation run recomputes ValidationStatus; Locked
// is set once, by snapshot generation, and never cleared.
type FileRecord struct {
	ID               string           `json:"id"`
	ProjectID        string           `json:"project_id"`
	Kind             FileKind         `json:"kind"`
	OriginalName     string           `json:"original_name"`
	UploaderID       string           `json:"uploader_id"`
	FileHash         string           `json:"file_hash,omitempty"`
	Version          int64            `json:"version"`
	ParseStatus      ParseStatus      `json:"parse_status"`
	ValidationStatus ValidationStatus `json:"validation_status"`
	Locked           bool             `json:"locked"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Usable reports whether the file may feed a new cost snapshot.
func (f *FileRecord) Usable() bool {
	return f.ParseStatus == ParseParsed &&
		(f.ValidationStatus == ValidationOK || f.ValidationStatus == ValidationConfirmed) &&
		!f.Locked
}

// Editable reports whether the file's items may be edited or confirmed.
func (f *FileRecord) Editable() bool {
	return !f.Locked
}
