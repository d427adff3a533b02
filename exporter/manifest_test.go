package exporter

import (
	"strings"
	"testing"

	"spexport/models"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestManifestWriteRead(t *testing.T) {
	fs := afero.NewMemMapFs()

	records := []models.ExportRecord{
		{
			FileName:           "a.pdf",
			RemoteRelativeURL:  "/sites/demo/Docs/a.pdf",
			RemoteParentFolder: "/sites/demo/Docs",
			LocalFileName:      "/out/Docs/a.pdf",
		},
		{
			FileName:           "c.pdf",
			RemoteRelativeURL:  "/sites/demo/Docs/Sub/c.pdf",
			RemoteParentFolder: "/sites/demo/Docs/Sub",
			LocalFileName:      "/out/Docs/Sub/c.pdf",
		},
	}

	require.NoError(t, WriteManifest(fs, "/Docs.manifest", records))

	got, err := ReadManifest(fs, "/Docs.manifest")
	require.NoError(t, err)
	require.Equal(t, records, got)
}

func TestManifestHeaderOnly(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, WriteManifest(fs, "/Docs.manifest", nil))

	content, err := afero.ReadFile(fs, "/Docs.manifest")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Equal(t, []string{"FileName,RemoteRelativeUrl,RemoteParentFolder,LocalFileName"}, lines)

	records, err := ReadManifest(fs, "/Docs.manifest")
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestManifestMissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := ReadManifest(fs, "/absent.manifest")
	require.Error(t, err)
}
