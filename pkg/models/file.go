package models

import (
	"time"

	"gorm.io/gorm"
)

// File is the canonical record of a file known to the preservation system,
// keyed by its domain UUID. CurrentLocation uses the
// "%transferDirectory%"-prefixed form while the file sits in a transfer.
type File struct {
	UUID string `gorm:"type:varchar(36);primaryKey" json:"uuid"`

	CurrentLocation string `gorm:"type:text" json:"current_location"`

	// TransferID and SIPID link the file to its processing units. Either
	// may be empty depending on how far the file has progressed.
	TransferID string `gorm:"type:varchar(36);index" json:"transfer_id"`
	SIPID      string `gorm:"type:varchar(36);index" json:"sip_id"`

	// ModificationTime is the file's recorded modification timestamp.
	ModificationTime *time.Time `json:"modification_time,omitempty"`

	// FormatVersions are the identified format descriptors for the file.
	FormatVersions []FileFormatVersion `gorm:"foreignKey:FileUUID" json:"-"`
}

func (File) TableName() string {
	return "files"
}

// Get retrieves a file by UUID.
func (f *File) Get(db *gorm.DB) error {
	return db.First(f, "uuid = ?", f.UUID).Error
}

// Create inserts the file.
func (f *File) Create(db *gorm.DB) error {
	return db.Create(f).Error
}

// FileFormatVersion records one identified format for a file, with the
// descriptor fields denormalized from the format registry.
type FileFormatVersion struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	FileUUID string `gorm:"type:varchar(36);index" json:"file_uuid"`

	// PUID is the format registry identifier, e.g. "fmt/19".
	PUID string `gorm:"type:varchar(255)" json:"puid"`

	// Description is the human-readable format version description.
	Description string `gorm:"type:varchar(255)" json:"description"`

	// GroupDescription is the format group, e.g. "PDF family".
	GroupDescription string `gorm:"type:varchar(255)" json:"group_description"`
}

func (FileFormatVersion) TableName() string {
	return "file_format_versions"
}

// FormatRecord is the flattened per-format descriptor embedded in indexed
// transfer-file documents.
type FormatRecord struct {
	PUID   string `json:"puid" mapstructure:"puid"`
	Format string `json:"format" mapstructure:"format"`
	Group  string `json:"group" mapstructure:"group"`
}
