package exporter

import (
	"fmt"

	"spexport/models"

	"github.com/gocarina/gocsv"
	"github.com/spf13/afero"
)

// WriteManifest writes the export records for one library as a CSV file.
// An empty record set still produces a manifest with the header row.
func WriteManifest(fs afero.Fs, path string, records []models.ExportRecord) error {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create manifest %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.Marshal(&records, f); err != nil {
		return fmt.Errorf("cannot write manifest %s: %w", path, err)
	}
	return nil
}

// ReadManifest loads the records of a previously written manifest.
func ReadManifest(fs afero.Fs, path string) ([]models.ExportRecord, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open manifest %s: %w", path, err)
	}
	defer f.Close()

	var records []models.ExportRecord
	if err := gocsv.Unmarshal(f, &records); err != nil {
		return nil, fmt.Errorf("cannot read manifest %s: %w", path, err)
	}
	return records, nil
}
