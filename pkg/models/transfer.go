package models

import (
	"strings"

	"gorm.io/gorm"
)

// Transfer is the canonical record of a pre-ingest transfer.
type Transfer struct {
	// UUID is the domain identifier assigned by the preservation system.
	UUID string `gorm:"type:varchar(36);primaryKey" json:"uuid"`

	// CurrentLocation is the transfer directory path, with a trailing
	// slash, e.g. "%sharedPath%www/backlog/originals/photos-1/".
	CurrentLocation string `gorm:"type:text" json:"current_location"`

	// AccessionID is the accession number supplied at transfer start.
	AccessionID string `gorm:"type:varchar(255)" json:"accession_id"`
}

func (Transfer) TableName() string {
	return "transfers"
}

// Get retrieves a transfer by UUID.
func (t *Transfer) Get(db *gorm.DB) error {
	return db.First(t, "uuid = ?", t.UUID).Error
}

// Create inserts the transfer.
func (t *Transfer) Create(db *gorm.DB) error {
	return db.Create(t).Error
}

// Name returns the transfer directory name, the second-to-last segment of the
// current location. An unset location yields "".
func (t *Transfer) Name() string {
	parts := strings.Split(t.CurrentLocation, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}
