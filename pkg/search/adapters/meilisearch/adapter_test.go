package meilisearch

import (
	"sort"
	"strings"
	"testing"

	"github.com/artefactual-forge/aipsearch/pkg/search"
)

// TestNewStore validates configuration handling only. Tests against a live
// Meilisearch need a running service and use the bleve adapter's suite as the
// contract reference.
func TestNewStore(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg:  &Config{Host: "http://localhost:7700", APIKey: "masterKey123"},
		},
		{
			name: "valid https config without key",
			cfg:  &Config{Host: "https://search.example.com"},
		},
		{
			name:    "missing host",
			cfg:     &Config{APIKey: "masterKey123"},
			wantErr: true,
		},
		{
			name:    "nil config",
			cfg:     nil,
			wantErr: true,
		},
		{
			name:    "host without scheme",
			cfg:     &Config{Host: "localhost:7700"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewStore() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && store == nil {
				t.Error("NewStore() returned nil store")
			}
		})
	}
}

func TestBuildFilter(t *testing.T) {
	if got := buildFilter(search.MatchAllQuery()); got != nil {
		t.Errorf("match-all filter = %v, want nil", got)
	}

	got, ok := buildFilter(search.TermQuery("uuid", "aip-1")).(string)
	if !ok || got != `uuid = "aip-1"` {
		t.Errorf("term filter = %v", got)
	}

	combined, _ := buildFilter(search.BacklogFilterNoAdministrative()).(string)
	if !strings.Contains(combined, `status = "backlog"`) ||
		!strings.Contains(combined, `fileuuid != ""`) ||
		!strings.Contains(combined, " AND ") {
		t.Errorf("combined filter = %q", combined)
	}
}

func TestFilterableAttributes(t *testing.T) {
	attrs := filterableAttributes(search.Specs()[search.IndexTransferFiles])
	sort.Strings(attrs)

	want := []string{"fileuuid", "format.puid", "sipuuid", "status"}
	for _, attr := range want {
		if !contains(attrs, attr) {
			t.Errorf("filterable attributes missing %q: %v", attr, attrs)
		}
	}
	if contains(attrs, "format") {
		t.Errorf("nested parent field should not be filterable directly: %v", attrs)
	}
}

func TestFilterableAttributesSkipObjects(t *testing.T) {
	attrs := filterableAttributes(search.Specs()[search.IndexAIPs])
	if contains(attrs, "mets") {
		t.Errorf("object field should not be filterable: %v", attrs)
	}
}

func TestSortableAttributes(t *testing.T) {
	attrs := sortableAttributes(search.Specs()[search.IndexAIPs])
	if !contains(attrs, "name") {
		t.Errorf("sortable attributes missing name: %v", attrs)
	}
}

func contains(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}
