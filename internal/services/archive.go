package services

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/tupyy/artifact-collector/internal/models"
)

// indirection files only hold the name of the payload.
const maxIndirectionSize = 4096

var errEmptyArchive = errors.New("archive has no entries")

// FetchFunc streams an archive into w.
type FetchFunc func(ctx context.Context, w io.Writer) (int64, error)

// ClientNameFunc returns the display name of a client.
type ClientNameFunc func(ctx context.Context, clientID string) (string, error)

// ArchiveRetriever downloads result archives and unpacks them into a working directory.
type ArchiveRetriever struct {
	client Grr
	log    *zap.SugaredLogger
}

func NewArchiveRetriever(client Grr) *ArchiveRetriever {
	return &ArchiveRetriever{
		client: client,
		log:    zap.S().Named("archive"),
	}
}

// DownloadFlow fetches the files of a flow into dest and extracts every entry there.
// It returns dest. Nothing is fetched if dest already holds the archive.
func (a *ArchiveRetriever) DownloadFlow(ctx context.Context, clientID, flowID, dest string) (string, error) {
	zipPath, skipped, err := a.fetch(ctx, flowID, dest, func(ctx context.Context, w io.Writer) (int64, error) {
		return a.client.GetFlowFilesArchive(ctx, clientID, flowID, w)
	})
	if err != nil || skipped {
		return dest, err
	}

	if err := extractAll(zipPath, dest); err != nil {
		return "", err
	}
	if err := os.Remove(zipPath); err != nil {
		return "", fmt.Errorf("removing archive: %w", err)
	}

	a.log.Infow("flow files downloaded", "client_id", clientID, "flow_id", flowID, "path", dest)
	return dest, nil
}

// DownloadHunt fetches a hunt archive with fetch and partitions it per client under dest.
// Every client directory is returned with the client name as label.
func (a *ArchiveRetriever) DownloadHunt(ctx context.Context, huntID, dest string, fetch FetchFunc, clientName ClientNameFunc) ([]models.CollectedPath, error) {
	zipPath, skipped, err := a.fetch(ctx, huntID, dest, fetch)
	if err != nil || skipped {
		return nil, err
	}

	paths, err := a.extractHunt(ctx, zipPath, dest, clientName)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(zipPath); err != nil {
		return nil, fmt.Errorf("removing archive: %w", err)
	}

	a.log.Infow("hunt files downloaded", "hunt_id", huntID, "clients", len(paths), "path", dest)
	return paths, nil
}

// fetch writes the archive to <dest>/<id>.zip. The download goes to a temporary file first
// so an interrupted transfer never looks like a complete archive.
func (a *ArchiveRetriever) fetch(ctx context.Context, id, dest string, fetch FetchFunc) (string, bool, error) {
	if err := os.MkdirAll(dest, 0o750); err != nil {
		return "", false, fmt.Errorf("creating %s: %w", dest, err)
	}

	zipPath := filepath.Join(dest, id+".zip")
	if _, err := os.Stat(zipPath); err == nil {
		a.log.Infow("already exists: skipping", "path", zipPath)
		return zipPath, true, nil
	}

	tmp := zipPath + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return "", false, err
	}

	n, err := fetch(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return "", false, err
	}

	if err := os.Rename(tmp, zipPath); err != nil {
		_ = os.Remove(tmp)
		return "", false, err
	}

	a.log.Debugw("archive downloaded", "path", zipPath, "size", humanize.Bytes(uint64(n)))
	return zipPath, false, nil
}

func (a *ArchiveRetriever) extractHunt(ctx context.Context, zipPath, dest string, clientName ClientNameFunc) ([]models.CollectedPath, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, &models.ArchiveError{Path: zipPath, Err: err}
	}
	defer func() { _ = r.Close() }()

	if len(r.File) == 0 {
		return nil, &models.ArchiveError{Path: zipPath, Err: errEmptyArchive}
	}

	base := strings.Split(r.File[0].Name, "/")[0]
	entries := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		entries[f.Name] = f
	}

	var paths []models.CollectedPath
	created := make(map[string]bool)

	for _, f := range r.File {
		parts := strings.Split(f.Name, "/")
		if len(parts) < 3 || !strings.HasPrefix(parts[1], "C.") || f.FileInfo().IsDir() {
			continue
		}
		clientID := parts[1]
		clientDir := filepath.Join(dest, clientID)

		if !created[clientID] {
			if err := os.MkdirAll(clientDir, 0o750); err != nil {
				return nil, fmt.Errorf("creating %s: %w", clientDir, err)
			}
			created[clientID] = true

			name, err := clientName(ctx, clientID)
			if err != nil {
				a.log.Warnw("failed to get client name", "client_id", clientID, "error", err)
				name = clientID
			}
			paths = append(paths, models.CollectedPath{Path: clientDir, Label: name})
		}

		location, err := readIndirection(f)
		if err != nil {
			a.log.Infow("extraction error", "entry", f.Name, "error", err)
			continue
		}

		payload := base + "/hashes/" + location
		hf, ok := entries[payload]
		if !ok {
			a.log.Infow("extraction error", "entry", f.Name, "error", fmt.Sprintf("there is no item named %q in the archive", payload))
			continue
		}

		if err := extractFile(hf, clientDir); err != nil {
			a.log.Infow("extraction error", "entry", f.Name, "error", err)
			continue
		}
	}

	return paths, nil
}

// readIndirection returns the basename of the path stored in the body of f.
func readIndirection(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, maxIndirectionSize))
	if err != nil {
		return "", err
	}

	location := path.Base(strings.TrimSpace(string(data)))
	if location == "." || location == "/" {
		return "", fmt.Errorf("entry %s does not name a payload", f.Name)
	}
	return location, nil
}

func extractAll(zipPath, dest string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return &models.ArchiveError{Path: zipPath, Err: err}
	}
	defer func() { _ = r.Close() }()

	for _, f := range r.File {
		if err := extractFile(f, dest); err != nil {
			return &models.ArchiveError{Path: zipPath, Err: err}
		}
	}
	return nil
}

// extractFile writes f under dest keeping its archive path.
func extractFile(f *zip.File, dest string) error {
	target := filepath.Join(dest, filepath.FromSlash(f.Name))
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return fmt.Errorf("illegal file path in archive: %s", f.Name)
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o750)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
