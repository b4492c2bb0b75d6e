package archive

import (
	"fmt"
	"strings"

	"github.com/opscart/zap-lighthouse/pkg/models"
)

// Bundle is the normalized content of one archive
type Bundle struct {
	Export       *models.WorkflowExport
	DocumentName string
	Tables       []Table
	Warnings     []string
}

// NormalizeBytes opens a zip archive held in memory and normalizes it
func NormalizeBytes(data []byte) (*Bundle, error) {
	a, err := OpenZip(data)
	if err != nil {
		return nil, err
	}
	return Normalize(a)
}

// Normalize locates the workflow document and history tables inside an archive
func Normalize(a Archive) (*Bundle, error) {
	entries := a.Entries()

	name, ok := locateDocument(entries)
	if !ok {
		return nil, fmt.Errorf("%w: no workflow document (looked for %s)",
			ErrMalformedArchive, strings.Join(documentCandidates, ", "))
	}
	data, err := a.ReadEntry(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedArchive, err)
	}
	export, err := DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	bundle := &Bundle{Export: export, DocumentName: name}
	for _, entry := range entries {
		if skipEntry(entry) || !strings.HasSuffix(strings.ToLower(entry), ".csv") {
			continue
		}
		data, err := a.ReadEntry(entry)
		if err != nil {
			bundle.Warnings = append(bundle.Warnings, fmt.Sprintf("skipped %s: %v", entry, err))
			continue
		}
		table, err := DecodeTable(entry, data)
		if err != nil {
			bundle.Warnings = append(bundle.Warnings, fmt.Sprintf("skipped %s: %v", entry, err))
			continue
		}
		bundle.Tables = append(bundle.Tables, table)
	}

	return bundle, nil
}
