package search

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
)

// FieldType enumerates the field kinds the logical indexes use.
type FieldType string

const (
	// FieldKeyword is an exact-match string, used for identifiers,
	// statuses and UUID-like values.
	FieldKeyword FieldType = "keyword"

	// FieldText is analyzed full text.
	FieldText FieldType = "text"

	// FieldInteger and FieldDouble are numeric.
	FieldInteger FieldType = "integer"
	FieldDouble  FieldType = "double"

	// FieldDate carries a format and may ignore malformed values.
	FieldDate FieldType = "date"

	// FieldBoolean is a boolean.
	FieldBoolean FieldType = "boolean"

	// FieldNested is an array of structured sub-records with their own
	// field specifications.
	FieldNested FieldType = "nested"

	// FieldObject is a free-form object whose interior is not mapped,
	// used for normalized manifest trees.
	FieldObject FieldType = "object"
)

// FieldSpec describes one field of a logical index.
type FieldSpec struct {
	Type FieldType

	// Format applies to date fields, e.g. "dateOptionalTime".
	Format string

	// IgnoreMalformed makes the store drop unparseable values for this
	// field instead of rejecting the whole document.
	IgnoreMalformed bool

	// Sortable adds a parallel exact-match subfield so a full-text field
	// can also be sorted on.
	Sortable bool

	// Properties holds the sub-fields of a nested field.
	Properties map[string]FieldSpec
}

// IndexSpec is the full field specification for one logical index. Specs are
// declared once below and never mutated.
type IndexSpec struct {
	// DisableDateDetection turns off automatic date typing, required for
	// the indexes that carry normalized manifest trees where free-text
	// values would otherwise be mis-typed as dates.
	DisableDateDetection bool

	Fields map[string]FieldSpec
}

func keywordField() FieldSpec { return FieldSpec{Type: FieldKeyword} }
func textField() FieldSpec    { return FieldSpec{Type: FieldText} }
func sortableText() FieldSpec { return FieldSpec{Type: FieldText, Sortable: true} }
func doubleField() FieldSpec  { return FieldSpec{Type: FieldDouble} }
func dateOptional() FieldSpec { return FieldSpec{Type: FieldDate, Format: "dateOptionalTime"} }

// Specs returns the field specification for each logical index.
func Specs() map[string]IndexSpec {
	return map[string]IndexSpec{
		IndexAIPs:          aipsSpec(),
		IndexAIPFiles:      aipFilesSpec(),
		IndexTransfers:     transfersSpec(),
		IndexTransferFiles: transferFilesSpec(),
	}
}

func aipsSpec() IndexSpec {
	return IndexSpec{
		DisableDateDetection: true,
		Fields: map[string]FieldSpec{
			"name":           sortableText(),
			"size":           doubleField(),
			"uuid":           keywordField(),
			"status":         keywordField(),
			"filePath":       textField(),
			"origin":         keywordField(),
			"created":        doubleField(),
			"AICID":          keywordField(),
			"isPartOf":       keywordField(),
			"countAIPsinAIC": {Type: FieldInteger},
			"identifiers":    keywordField(),
			"encrypted":      {Type: FieldBoolean},
			"mets":           {Type: FieldObject},
		},
	}
}

func aipFilesSpec() IndexSpec {
	return IndexSpec{
		DisableDateDetection: true,
		Fields: map[string]FieldSpec{
			"AIPUUID":       keywordField(),
			"FILEUUID":      keywordField(),
			"isPartOf":      keywordField(),
			"AICID":         keywordField(),
			"sipName":       textField(),
			"indexedAt":     doubleField(),
			"filePath":      textField(),
			"fileExtension": textField(),
			"origin":        textField(),
			"identifiers":   keywordField(),
			"METS":          {Type: FieldObject},
		},
	}
}

func transfersSpec() IndexSpec {
	return IndexSpec{
		Fields: map[string]FieldSpec{
			"name":             textField(),
			"status":           textField(),
			"ingest_date":      dateOptional(),
			"file_count":       {Type: FieldInteger},
			"uuid":             keywordField(),
			"pending_deletion": {Type: FieldBoolean},
		},
	}
}

func transferFilesSpec() IndexSpec {
	return IndexSpec{
		Fields: map[string]FieldSpec{
			"filename":      textField(),
			"relative_path": textField(),
			"fileuuid":      keywordField(),
			"sipuuid":       keywordField(),
			"accessionid":   keywordField(),
			"status":        keywordField(),
			"origin":        keywordField(),
			"ingestdate":    dateOptional(),
			// METS.xml files sent to backlog carry an empty
			// modification date; ignore malformed values instead of
			// failing the whole document.
			"modification_date": {Type: FieldDate, Format: "dateOptionalTime", IgnoreMalformed: true},
			"created":           doubleField(),
			"size":              doubleField(),
			"tags":              keywordField(),
			"file_extension":    keywordField(),
			"scan_reports":      keywordField(),
			"format": {
				Type: FieldNested,
				Properties: map[string]FieldSpec{
					"puid":   keywordField(),
					"format": textField(),
					"group":  textField(),
				},
			},
		},
	}
}

// EnsureIndexes creates any logical index missing from the store. It is
// idempotent and safe to race: an index created concurrently is treated as
// already existing rather than a failure.
func EnsureIndexes(ctx context.Context, store Store, logger hclog.Logger) error {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	exists, err := store.IndexExists(ctx, IndexNames()...)
	if err != nil {
		return &Error{Op: "EnsureIndexes", Err: err, Msg: "checking indexes"}
	}
	if exists {
		logger.Debug("all indexes already created")
		return nil
	}

	for name, spec := range Specs() {
		logger.Info("creating index", "index", name)
		if err := store.CreateIndex(ctx, name, spec); err != nil {
			return &Error{Op: "EnsureIndexes", Err: err, Msg: fmt.Sprintf("creating index %q", name)}
		}
	}
	return nil
}
