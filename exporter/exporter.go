package exporter

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"spexport/models"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// reservedFormsFolder is the folder SharePoint keeps inside every document
// library for its list forms. It never holds user documents and is skipped
// at every depth.
const reservedFormsFolder = "Forms"

type remoteStore interface {
	Connect(ctx context.Context) error
	Close() error
	GetLibrary(ctx context.Context, title string) (models.Folder, error)
	ListFolder(ctx context.Context, serverRelPath string) ([]models.FileInfo, error)
	OpenFile(ctx context.Context, serverRelPath string) (io.ReadCloser, error)
}

// Exporter downloads document libraries from a remote site onto local disk
type Exporter struct {
	remote  remoteStore
	fs      afero.Fs
	confirm func(library string) bool
	log     *zap.Logger
}

// Dependencies configuration for creating an exporter
type Dependencies struct {
	Remote  remoteStore
	FS      afero.Fs
	Confirm func(library string) bool
	Log     *zap.Logger
}

// Config holds configuration for one export run
type Config struct {
	OutputRoot string
	Libraries  []string
	Recurse    bool
}

// NewExporter creates a new instance of the export processor. Every log
// line of the run carries the same generated run_id.
func NewExporter(d *Dependencies) *Exporter {
	e := &Exporter{
		remote:  d.Remote,
		fs:      d.FS,
		confirm: d.Confirm,
		log:     d.Log,
	}
	if e.fs == nil {
		e.fs = afero.NewOsFs()
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	e.log = e.log.With(zap.String("run_id", uuid.NewString()))
	return e
}

// Run exports every requested library under the output root, one manifest
// per library. The first failure aborts the whole run; libraries already
// exported stay on disk.
func (e *Exporter) Run(ctx context.Context, cfg Config) error {
	e.log.Info("Starting export",
		zap.Strings("libraries", cfg.Libraries),
		zap.String("output", cfg.OutputRoot),
		zap.Bool("recurse", cfg.Recurse))

	// Validate configuration
	if len(cfg.Libraries) == 0 {
		return fmt.Errorf("no libraries specified")
	}
	ok, err := afero.DirExists(e.fs, cfg.OutputRoot)
	if err != nil {
		return fmt.Errorf("cannot stat output root %s: %v", cfg.OutputRoot, err)
	}
	if !ok {
		return fmt.Errorf("output root %s does not exist", cfg.OutputRoot)
	}

	if err := e.remote.Connect(ctx); err != nil {
		return fmt.Errorf("connect to remote site: %w", err)
	}
	defer e.remote.Close()

	exported, totalFiles := 0, 0
	for _, title := range cfg.Libraries {
		library, err := e.remote.GetLibrary(ctx, title)
		if err != nil {
			return fmt.Errorf("resolve library %q: %w", title, err)
		}

		// Never merge into or overwrite a previous export
		target := filepath.Join(cfg.OutputRoot, library.Name)
		exists, err := afero.Exists(e.fs, target)
		if err != nil {
			return fmt.Errorf("cannot stat %s: %v", target, err)
		}
		if exists {
			return fmt.Errorf("%w: %s", models.ErrOutputExists, target)
		}

		if e.confirm != nil && !e.confirm(library.Name) {
			e.log.Info("Library skipped", zap.String("library", library.Name))
			continue
		}

		tree, err := e.resolveTree(ctx, library, cfg.Recurse)
		if err != nil {
			return fmt.Errorf("read library %q: %w", title, err)
		}

		records, err := e.exportTree(ctx, tree, cfg.OutputRoot, cfg.Recurse)
		if err != nil {
			return err
		}

		manifestPath := filepath.Join(cfg.OutputRoot, library.Name+".manifest")
		if err := WriteManifest(e.fs, manifestPath, records); err != nil {
			return err
		}

		e.log.Info("Library exported",
			zap.String("library", library.Name),
			zap.Int("files", len(records)))
		exported++
		totalFiles += len(records)
	}

	e.log.Info("Export finished",
		zap.Int("libraries", exported),
		zap.Int("files", totalFiles))
	return nil
}

// resolveTree reads the folder structure below the given folder from the
// remote store. With recurse off only the folder's own listing is read;
// subfolders stay as stubs so the exporter can still tell an empty folder
// from one that has children.
func (e *Exporter) resolveTree(ctx context.Context, folder models.Folder, recurse bool) (models.Folder, error) {
	items, err := e.remote.ListFolder(ctx, folder.ServerRelativeURL)
	if err != nil {
		return models.Folder{}, err
	}

	for _, item := range items {
		if item.IsDir {
			sub := models.Folder{
				Name:              item.Name,
				ServerRelativeURL: item.Path,
			}
			if recurse && item.Name != reservedFormsFolder {
				sub, err = e.resolveTree(ctx, sub, recurse)
				if err != nil {
					return models.Folder{}, err
				}
			}
			folder.Folders = append(folder.Folders, sub)
		} else {
			folder.Files = append(folder.Files, models.File{
				Name:              item.Name,
				ServerRelativeURL: item.Path,
				ParentFolder:      folder.ServerRelativeURL,
				Size:              item.Size,
				ModTime:           item.ModTime,
			})
		}
	}
	return folder, nil
}

// exportTree materializes one folder under destParent and returns the
// manifest records in discovery order: the folder's own files first, then
// each subfolder's records. Directories are created lazily; a folder with
// no files and no subfolders leaves no trace on disk.
func (e *Exporter) exportTree(ctx context.Context, folder models.Folder, destParent string, recurse bool) ([]models.ExportRecord, error) {
	if folder.Name == reservedFormsFolder {
		return nil, nil
	}
	if len(folder.Files) == 0 && len(folder.Folders) == 0 {
		return nil, nil
	}

	dest := filepath.Join(destParent, folder.Name)
	if err := e.fs.Mkdir(dest, 0755); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrDirectoryCreate, dest, err)
	}
	e.log.Info("Directory created", zap.String("path", dest))

	var records []models.ExportRecord
	for _, file := range folder.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		localPath, err := e.saveFile(ctx, file, dest)
		if err != nil {
			e.log.Error("File save failed",
				zap.String("file", file.ServerRelativeURL),
				zap.Error(err))
			return nil, err
		}

		records = append(records, models.ExportRecord{
			FileName:           file.Name,
			RemoteRelativeURL:  file.ServerRelativeURL,
			RemoteParentFolder: file.ParentFolder,
			LocalFileName:      localPath,
		})
		e.log.Info("File exported",
			zap.String("file", file.ServerRelativeURL),
			zap.String("local", localPath),
			zap.Int64("size", file.Size),
			zap.Time("modified", file.ModTime))
	}

	if !recurse {
		return records, nil
	}

	for _, sub := range folder.Folders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		subRecords, err := e.exportTree(ctx, sub, dest, recurse)
		if err != nil {
			return nil, err
		}
		records = append(records, subRecords...)
	}
	return records, nil
}

// saveFile retrieves one file's content and writes it under destDir using
// the remote name. An existing file of the same name is overwritten; the
// collision guard runs once per library, not per file.
func (e *Exporter) saveFile(ctx context.Context, file models.File, destDir string) (string, error) {
	rc, err := e.remote.OpenFile(ctx, file.ServerRelativeURL)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", models.ErrRemoteRead, file.ServerRelativeURL, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", models.ErrRemoteRead, file.ServerRelativeURL, err)
	}

	localPath := filepath.Join(destDir, file.Name)
	if err := afero.WriteFile(e.fs, localPath, content, 0644); err != nil {
		return "", fmt.Errorf("%w: %s: %v", models.ErrLocalWrite, localPath, err)
	}
	return localPath, nil
}
