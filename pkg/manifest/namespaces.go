package manifest

// Namespace URIs used by preservation METS documents.
const (
	NSMets       = "http://www.loc.gov/METS/"
	NSPremis     = "info:lc/xmlns/premis-v2"
	NSDublinCore = "http://purl.org/dc/elements/1.1/"
	NSDCTerms    = "http://purl.org/dc/terms/"
	NSXlink      = "http://www.w3.org/1999/xlink"
	NSFits       = "http://hul.harvard.edu/ois/xml/ns/fits/fits_output"
)

// nsmap binds the canonical prefixes used in path expressions to their URIs.
// Path steps resolve by URI, so documents may declare any prefix they like.
var nsmap = map[string]string{
	"mets":    NSMets,
	"premis":  NSPremis,
	"dc":      NSDublinCore,
	"dcterms": NSDCTerms,
	"xlink":   NSXlink,
	"fits":    NSFits,
}
