// Package inventory implements the Inventory Reader (§4.F): parsing a
// bulk-snapshot manifest and streaming its data files (gzip-CSV, ORC, or
// Parquet) into synthetic Crawl records for the ingestion pipeline.
package inventory

import (
	"encoding/json"

	"github.com/OrcaBus/service-filemanager/ingesterr"
)

// ManifestFile is one entry in a manifest's files array.
type ManifestFile struct {
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	MD5Checksum string `json:"MD5checksum"`
}

// Manifest is the required shape described in §6: sourceBucket,
// destinationBucket, fileSchema (ordered column names), and files.
// FileFormat is not part of the standard manifest fields but is recognized
// when present to pick a container reader without relying on file
// extension sniffing.
type Manifest struct {
	SourceBucket      string         `json:"sourceBucket"`
	DestinationBucket string         `json:"destinationBucket"`
	FileSchema        []string       `json:"fileSchema"`
	Files             []ManifestFile `json:"files"`
	FileFormat        string         `json:"fileFormat"`
}

// ParseManifest decodes a manifest and checks that sourceBucket,
// destinationBucket and fileSchema are present. The files list is not
// checked; an empty or missing one is accepted.
func ParseManifest(raw []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, ingesterr.New(ingesterr.KindMalformed, "invalid manifest JSON", err)
	}
	if m.SourceBucket == "" || m.DestinationBucket == "" {
		return nil, ingesterr.New(ingesterr.KindMalformed, "manifest missing sourceBucket/destinationBucket", nil)
	}
	if len(m.FileSchema) == 0 {
		return nil, ingesterr.New(ingesterr.KindMalformed, "manifest missing fileSchema", nil)
	}
	return &m, nil
}
