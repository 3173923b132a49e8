package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"gorm.io/gorm"

	"github.com/artefactual-forge/aipsearch/pkg/models"
	"github.com/artefactual-forge/aipsearch/pkg/search"
)

// transferDirectoryToken is the placeholder the relational file records use in
// place of the transfer directory path.
const transferDirectoryToken = "%transferDirectory%"

// ignoreFiles are basenames never indexed.
var ignoreFiles = map[string]struct{}{
	"processingMCP.xml": {},
}

// scanReportKinds are the sensitive-data scanner report names looked for under
// logs/bulk-<file-uuid>/ in the transfer directory.
var scanReportKinds = []string{"telephone", "ccn", "ccn_track2", "pii"}

// IndexTransferAndFiles indexes every file in the transfer directory at path,
// then a summary document for the transfer itself. path includes the transfer
// directory with a trailing slash. It returns the number of file documents
// written. A missing path fails before anything is written; per-file write
// failures are collected and the walk continues.
func (i *Indexer) IndexTransferAndFiles(ctx context.Context, transferUUID, path, status string) (int, error) {
	if !i.exists(path) {
		return 0, fmt.Errorf("transfer at %s: %w", path, ErrPathMissing)
	}

	logger := i.logger.With("transfer_uuid", transferUUID)
	logger.Info("indexing transfer files")

	if err := i.client.EnsureIndexes(ctx); err != nil {
		return 0, err
	}

	accessionID, transferName := i.transferIdentity(ctx, transferUUID, logger)

	filesIndexed, errs := i.indexTransferFiles(ctx, transferUUID, path, status, accessionID, transferName, logger)
	logger.Info("transfer files indexed", "count", filesIndexed)

	doc := search.Document{
		"name":             transferName,
		"status":           status,
		"ingest_date":      i.now().Format("2006-01-02"),
		"file_count":       filesIndexed,
		"uuid":             transferUUID,
		"pending_deletion": false,
	}
	if _, err := i.client.Writer().Index(ctx, search.IndexTransfers, doc); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("transfer document: %w", err))
	} else {
		logger.Info("transfer indexed")
	}

	return filesIndexed, errs.ErrorOrNil()
}

// transferIdentity resolves the accession number and directory name from the
// relational transfer record. An unknown transfer degrades to empty values.
func (i *Indexer) transferIdentity(ctx context.Context, transferUUID string, logger hclog.Logger) (string, string) {
	if i.lookups == nil {
		return "", ""
	}
	transfer, err := i.lookups.TransferByUUID(ctx, transferUUID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("transfer lookup failed", "error", err)
		}
		return "", ""
	}
	return transfer.AccessionID, transfer.Name()
}

func (i *Indexer) indexTransferFiles(ctx context.Context, transferUUID, transferPath, status, accessionID, transferName string, logger hclog.Logger) (int, *multierror.Error) {
	ingestDate := i.now().Format("2006-01-02")

	var indexed int
	var errs *multierror.Error

	walkErr := afero.Walk(i.fs, transferPath, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		filename := filepath.Base(p)
		if _, skip := ignoreFiles[filename]; skip {
			logger.Debug("skipping file", "path", p)
			return nil
		}

		location := transferDirectoryToken + relativeTo(p, transferPath)

		fileUUID, formats, scanReports, modificationDate := i.fileDetails(ctx, location, transferUUID, transferPath)

		doc := search.Document{
			"filename":          filename,
			"relative_path":     strings.Replace(location, transferDirectoryToken, transferName+"/", 1),
			"fileuuid":          fileUUID,
			"sipuuid":           transferUUID,
			"accessionid":       accessionID,
			"status":            status,
			"origin":            i.origin,
			"ingestdate":        ingestDate,
			"created":           float64(info.ModTime().Unix()),
			"modification_date": modificationDate,
			"size":              sizeMB(info.Size()),
			"tags":              []string{},
			"file_extension":    fileExtension(p),
			"scan_reports":      scanReports,
			"format":            formats,
		}

		if _, err := i.client.Writer().Index(ctx, search.IndexTransferFiles, doc); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("file %s: %w", location, err))
			return nil
		}
		indexed++
		return nil
	})
	if walkErr != nil {
		errs = multierror.Append(errs, walkErr)
	}

	return indexed, errs
}

// fileDetails resolves the relational identity of one transfer file. A file
// the database does not know yet indexes with an empty UUID, no formats and no
// scan reports.
func (i *Indexer) fileDetails(ctx context.Context, location, transferUUID, transferPath string) (fileUUID string, formats []models.FormatRecord, scanReports []string, modificationDate string) {
	formats = []models.FormatRecord{}
	scanReports = []string{}

	if i.lookups == nil {
		return "", formats, scanReports, ""
	}

	file, err := i.lookups.FileByLocationAndTransfer(ctx, location, transferUUID)
	if err != nil {
		return "", formats, scanReports, ""
	}

	fileUUID = file.UUID
	if fv, err := i.lookups.FormatsForFile(ctx, file.UUID); err == nil && fv != nil {
		formats = fv
	}
	scanReports = i.listScanReports(transferPath, file.UUID)
	if file.ModificationTime != nil {
		modificationDate = file.ModificationTime.Format("2006-01-02")
	}
	return fileUUID, formats, scanReports, modificationDate
}

// listScanReports returns the names of non-empty sensitive-data scan reports
// for the file, found under logs/bulk-<file-uuid>/ in the transfer directory.
func (i *Indexer) listScanReports(transferPath, fileUUID string) []string {
	reports := []string{}
	logPath := filepath.Join(transferPath, "logs", "bulk-"+fileUUID)

	if ok, err := afero.DirExists(i.fs, logPath); err != nil || !ok {
		return reports
	}
	for _, kind := range scanReportKinds {
		info, err := i.fs.Stat(filepath.Join(logPath, kind+".txt"))
		if err == nil && !info.IsDir() && info.Size() > 0 {
			reports = append(reports, kind)
		}
	}
	return reports
}

// relativeTo strips the transfer directory prefix, tolerating a path given
// with or without its trailing slash.
func relativeTo(p, base string) string {
	rel := strings.TrimPrefix(p, strings.TrimSuffix(base, "/"))
	return strings.TrimPrefix(rel, "/")
}

// RemoveSIPTransferFiles deletes the transfer-file documents of every transfer
// whose files were folded into the given SIP. The member transfers come from
// the relational store; a SIP with no recorded members deletes nothing.
// Per-transfer delete failures are collected and the remaining transfers are
// still processed.
func (i *Indexer) RemoveSIPTransferFiles(ctx context.Context, sipUUID string) error {
	if i.lookups == nil {
		return errors.New("no relational lookup source configured")
	}

	logger := i.logger.With("sip_uuid", sipUUID)

	transferIDs, err := i.lookups.TransferIDsForUnit(ctx, sipUUID)
	if err != nil {
		return fmt.Errorf("resolving member transfers: %w", err)
	}
	if len(transferIDs) == 0 {
		logger.Info("no member transfers recorded, nothing to remove")
		return nil
	}

	var errs *multierror.Error
	for _, transferID := range transferIDs {
		if err := i.client.DeleteTransferFiles(ctx, transferID); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("transfer %s: %w", transferID, err))
		}
	}
	return errs.ErrorOrNil()
}
