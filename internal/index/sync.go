package index

import (
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/kornell/internal/checksum"
	"github.com/starford/kornell/internal/parser"
	"github.com/starford/kornell/internal/storage"
)

// Sync walks the workspace and brings the index up to date:
//   - new or changed files are parsed and upserted
//   - files that fail to parse are skipped with a warning
//   - files removed from disk are deleted from the index
func Sync(db NoteIndex, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexFile(db, m.Path, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteNote(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: removed stale", slog.String("path", p))
		}
	}

	return nil
}

// IndexFile parses a Kornell file and upserts it. Content that is not a
// Kornell document is rejected with apperr.ErrParse and left unindexed.
// Untitled notes are listed under their file name.
func IndexFile(db NoteIndex, p string, data []byte, updatedAt time.Time) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	title := res.Title
	if title == "" {
		title = strings.TrimSuffix(path.Base(p), path.Ext(p))
	}
	return db.UpsertNote(NoteRow{
		Path:      p,
		Title:     title,
		Checksum:  checksum.Sum(data),
		Tags:      res.Tags,
		UpdatedAt: updatedAt,
	}, res.Body, res.Links)
}
