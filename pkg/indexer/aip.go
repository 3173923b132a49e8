package indexer

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/araddon/dateparse"
	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/artefactual-forge/aipsearch/internal/version"
	"github.com/artefactual-forge/aipsearch/pkg/manifest"
	"github.com/artefactual-forge/aipsearch/pkg/normalize"
	"github.com/artefactual-forge/aipsearch/pkg/search"
)

// aipTypeAIC and aipTypeAIP are the dc:type values that drive collection
// identifier extraction from the dublincore descriptive section.
const (
	aipTypeAIC = "Archival Information Collection"
	aipTypeAIP = "Archival Information Package"
)

// metsCreateDateLayout is the timestamp layout of the METS header CREATEDATE
// attribute.
const metsCreateDateLayout = "2006-01-02T15:04:05"

const dublincorePath = "mets:dmdSec/mets:mdWrap/mets:xmlData/dcterms:dublincore"

// uuidPattern matches UUID-shaped substrings of manifest file identifiers,
// with or without hyphens. Candidates are still validated before use.
var uuidPattern = regexp.MustCompile(`\w{8}-?\w{4}-?\w{4}-?\w{4}-?\w{12}`)

// AIPParams identifies the AIP to index and what is known about it up front.
type AIPParams struct {
	UUID     string
	Path     string
	METSPath string
	Name     string

	// Size in bytes. Zero means stat the AIP path.
	Size int64

	// AIPsInAIC is the number of AIPs stored in the AIC, when the unit is
	// one.
	AIPsInAIC *int

	// Identifiers are additional external identifiers to index alongside
	// the UUID.
	Identifiers []string

	Encrypted bool
}

// IndexAIPAndFiles indexes the AIP document and one document per original or
// metadata file listed in its manifest. It returns the number of file
// documents written. A missing AIP or manifest path fails the whole operation
// before anything is written; after that, per-file failures are collected and
// the remaining files still index.
func (i *Indexer) IndexAIPAndFiles(ctx context.Context, p AIPParams) (int, error) {
	if !i.exists(p.Path) {
		return 0, fmt.Errorf("AIP at %s: %w", p.Path, ErrPathMissing)
	}
	if !i.exists(p.METSPath) {
		return 0, fmt.Errorf("METS file at %s: %w", p.METSPath, ErrPathMissing)
	}

	logger := i.logger.With("aip_uuid", p.UUID)
	logger.Info("indexing AIP", "name", p.Name)

	if err := i.client.EnsureIndexes(ctx); err != nil {
		return 0, err
	}

	m, err := manifest.Parse(i.fs, p.METSPath)
	if err != nil {
		return 0, err
	}
	if removed := m.StripToolOutput(); removed > 0 {
		logger.Debug("removed characterization tool output", "elements", removed)
	}

	aicID, isPartOf := i.collectionIdentifiers(m, false)

	rawMETS, err := m.RootToMap()
	if err != nil {
		return 0, err
	}

	size := p.Size
	if size == 0 {
		info, err := i.fs.Stat(p.Path)
		if err != nil {
			return 0, fmt.Errorf("sizing AIP at %s: %w", p.Path, err)
		}
		size = info.Size()
	}

	doc := search.Document{
		"uuid":             p.UUID,
		"name":             p.Name,
		"filePath":         p.Path,
		"size":             sizeMB(size),
		"mets":             normalize.Normalize(rawMETS),
		"origin":           i.origin,
		"created":          i.manifestCreated(m, logger),
		"AICID":            emptyAsNil(aicID),
		"isPartOf":         emptyAsNil(isPartOf),
		"countAIPsinAIC":   p.AIPsInAIC,
		"identifiers":      identifiers(p.Identifiers),
		"transferMetadata": i.transferMetadata(m, logger),
		"encrypted":        p.Encrypted,
	}

	if _, err := i.client.Writer().Index(ctx, search.IndexAIPs, doc); err != nil {
		return 0, err
	}
	logger.Info("AIP indexed")

	count, err := i.indexAIPFiles(ctx, m, p, logger)
	logger.Info("AIP files indexed", "count", count)
	return count, err
}

// indexAIPFiles writes one document per manifest file with USE original or
// metadata.
func (i *Indexer) indexAIPFiles(ctx context.Context, m *manifest.Manifest, p AIPParams, logger hclog.Logger) (int, error) {
	dmdSec := i.descriptiveSection(m, logger)
	aicID, isPartOf := i.collectionIdentifiers(m, true)
	transferMeta := i.transferMetadata(m, logger)
	indexedAt := float64(i.now().Unix())

	files := m.FindAll("mets:fileSec/mets:fileGrp[@USE='original']/mets:file")
	files = append(files, m.FindAll("mets:fileSec/mets:fileGrp[@USE='metadata']/mets:file")...)

	var indexed int
	var errs *multierror.Error
	for _, file := range files {
		fileUUID, amdSec := i.fileIdentity(m, file, logger)

		filePath := ""
		if flocat := manifest.FindFirst(file, "mets:FLocat"); flocat != nil {
			filePath = manifest.Attr(flocat, manifest.NSXlink, "href")
		}

		doc := search.Document{
			"indexerVersion": version.Version,
			"AIPUUID":        p.UUID,
			"sipName":        p.Name,
			"FILEUUID":       fileUUID,
			"indexedAt":      indexedAt,
			"filePath":       filePath,
			"fileExtension":  fileExtension(filePath),
			"isPartOf":       emptyAsNil(isPartOf),
			"AICID":          emptyAsNil(aicID),
			"METS": map[string]any{
				"dmdSec": dmdSec,
				"amdSec": amdSec,
			},
			"origin":           i.origin,
			"identifiers":      identifiers(p.Identifiers),
			"transferMetadata": transferMeta,
		}

		if _, err := i.client.Writer().Index(ctx, search.IndexAIPFiles, doc); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("file %s: %w", filePath, err))
			continue
		}
		indexed++
	}

	return indexed, errs.ErrorOrNil()
}

// collectionIdentifiers extracts the AIC identifier and isPartOf relation from
// the dublincore descriptive section. The AIP document records isPartOf for
// every unit type; file documents only record it for units typed as AIPs.
func (i *Indexer) collectionIdentifiers(m *manifest.Manifest, typedOnly bool) (aicID, isPartOf string) {
	dublincore := m.FindFirst(dublincorePath)
	if dublincore == nil {
		return "", ""
	}

	aipType := manifest.Text(dublincore, "dc:type", "dcterms:type")
	if aipType == aipTypeAIC {
		aicID = manifest.Text(dublincore, "dc:identifier", "dcterms:identifier")
	}
	if !typedOnly || aipType == aipTypeAIP {
		isPartOf = manifest.Text(dublincore, "dcterms:isPartOf")
	}
	return aicID, isPartOf
}

// descriptiveSection converts the unit-wide dmdSec to a normalized map. When a
// manifest carries several, the last one wins.
func (i *Indexer) descriptiveSection(m *manifest.Manifest, logger hclog.Logger) map[string]any {
	sections := m.FindAll("mets:dmdSec/mets:mdWrap/mets:xmlData")
	if len(sections) == 0 {
		return map[string]any{}
	}

	raw, err := manifest.ElementToMap(sections[len(sections)-1])
	if err != nil {
		logger.Warn("failed to convert descriptive section", "error", err)
		return map[string]any{}
	}
	return normalize.Normalize(raw)
}

// fileIdentity resolves the file UUID and administrative metadata for one
// manifest file entry. Original files reference an amdSec through ADMID and
// carry their UUID in it; metadata files carry a UUID-shaped substring in
// their manifest ID instead, used only when unambiguous. The amdSec map is
// built fresh per file.
func (i *Indexer) fileIdentity(m *manifest.Manifest, file *etree.Element, logger hclog.Logger) (string, map[string]any) {
	admID := file.SelectAttrValue("ADMID", "")
	if admID == "" {
		return uuidFromID(file.SelectAttrValue("ID", "")), map[string]any{}
	}

	amdSec := m.FindFirst(fmt.Sprintf("mets:amdSec[@ID='%s']", admID))
	if amdSec == nil {
		logger.Warn("manifest file references missing amdSec", "admid", admID)
		return "", map[string]any{}
	}

	fileUUID := manifest.Text(amdSec,
		"mets:techMD/mets:mdWrap/mets:xmlData/premis:object/premis:objectIdentifier/premis:objectIdentifierValue")

	raw, err := manifest.ElementToMap(amdSec)
	if err != nil {
		logger.Warn("failed to convert amdSec", "admid", admID, "error", err)
		return fileUUID, map[string]any{}
	}
	return fileUUID, normalize.Normalize(raw)
}

// uuidFromID pulls a UUID out of a manifest file identifier. Several candidate
// substrings are accepted only when they are all the same valid UUID;
// otherwise the file has no usable identifier.
func uuidFromID(id string) string {
	candidates := uuidPattern.FindAllString(id, -1)
	distinct := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		distinct[c] = struct{}{}
	}
	if len(distinct) != 1 {
		return ""
	}
	candidate := candidates[0]
	if _, err := uuid.Parse(candidate); err != nil {
		return ""
	}
	return candidate
}

// manifestCreated reads the creation timestamp from the METS header,
// interpreted as UTC. An unparseable or absent value falls back to the current
// time with a logged warning.
func (i *Indexer) manifestCreated(m *manifest.Manifest, logger hclog.Logger) float64 {
	hdr := m.FindFirst("mets:metsHdr")
	if hdr == nil {
		return float64(i.now().Unix())
	}
	raw := hdr.SelectAttrValue("CREATEDATE", "")
	if raw == "" {
		return float64(i.now().Unix())
	}

	if t, err := time.ParseInLocation(metsCreateDateLayout, raw, time.UTC); err == nil {
		return float64(t.Unix())
	}
	if t, err := dateparse.ParseIn(raw, time.UTC); err == nil {
		return float64(t.Unix())
	}

	logger.Warn("failed to parse manifest CREATEDATE, using current time", "createdate", raw)
	return float64(i.now().Unix())
}

// transferMetadata extracts the source transfer metadata records embedded in
// the manifest, one raw map per transfer_metadata element.
func (i *Indexer) transferMetadata(m *manifest.Manifest, logger hclog.Logger) []any {
	elements := m.FindAll("mets:amdSec/mets:sourceMD/mets:mdWrap/mets:xmlData/transfer_metadata")
	records := make([]any, 0, len(elements))
	for _, el := range elements {
		raw, err := manifest.ElementToMap(el)
		if err != nil {
			logger.Warn("failed to convert transfer metadata", "error", err)
			continue
		}
		for _, v := range raw {
			records = append(records, v)
		}
	}
	return records
}

func emptyAsNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func identifiers(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
