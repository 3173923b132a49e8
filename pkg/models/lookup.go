package models

import (
	"context"

	"gorm.io/gorm"
)

// Lookup answers the relational queries the indexing pipeline needs. All
// methods translate a missing row to gorm.ErrRecordNotFound; callers decide
// whether absence is an error or a degraded value.
type Lookup struct {
	db *gorm.DB
}

// NewLookup builds a Lookup over an open database handle.
func NewLookup(db *gorm.DB) *Lookup {
	return &Lookup{db: db}
}

// TransferByUUID returns the transfer with the given domain identifier.
func (l *Lookup) TransferByUUID(ctx context.Context, uuid string) (*Transfer, error) {
	var transfer Transfer
	if err := l.db.WithContext(ctx).First(&transfer, "uuid = ?", uuid).Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

// FileByLocationAndTransfer returns the file whose current location and
// owning transfer match.
func (l *Lookup) FileByLocationAndTransfer(ctx context.Context, location, transferID string) (*File, error) {
	var file File
	err := l.db.WithContext(ctx).
		First(&file, "current_location = ? AND transfer_id = ?", location, transferID).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// FormatsForFile returns the identified format descriptors for a file, in
// insertion order. A file with no identified formats yields an empty slice.
func (l *Lookup) FormatsForFile(ctx context.Context, fileUUID string) ([]FormatRecord, error) {
	var versions []FileFormatVersion
	err := l.db.WithContext(ctx).
		Where("file_uuid = ?", fileUUID).
		Order("id").
		Find(&versions).Error
	if err != nil {
		return nil, err
	}
	records := make([]FormatRecord, 0, len(versions))
	for _, v := range versions {
		records = append(records, FormatRecord{
			PUID:   v.PUID,
			Format: v.Description,
			Group:  v.GroupDescription,
		})
	}
	return records, nil
}

// TransferIDsForUnit returns the distinct transfer IDs of files belonging to
// the given unit, matched as either a transfer or a SIP identifier. Used when
// clearing backlog documents for a unit whose files may span transfers.
func (l *Lookup) TransferIDsForUnit(ctx context.Context, uuid string) ([]string, error) {
	var ids []string
	err := l.db.WithContext(ctx).
		Model(&File{}).
		Distinct("transfer_id").
		Where("transfer_id = ? OR sip_id = ?", uuid, uuid).
		Where("transfer_id <> ''").
		Pluck("transfer_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
