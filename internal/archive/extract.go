package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/klauspost/compress/zip"
	"github.com/nwaples/rardecode/v2"

	"rostersync/internal/logging"
)

// Supported archive extensions.
const (
	ExtZip      = ".zip"
	ExtSevenZip = ".7z"
	ExtRar      = ".rar"
)

// member is one archive entry, independent of the container format.
type member struct {
	name string
	dir  bool
	mode fs.FileMode
	open func() (io.ReadCloser, error)
}

// walker visits every member of an archive in stored order. total is the
// member count when the format knows it up front, else -1.
type walker func(visit func(m member, total int) error) error

// Extractor unpacks archives. The zero value is not usable; call NewExtractor.
type Extractor struct {
	logger  *slog.Logger
	sampler *logging.ProgressSampler
}

// NewExtractor returns an Extractor logging progress through logger.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{
		logger:  logging.NewComponentLogger(logger, "archive"),
		sampler: logging.NewProgressSampler(25),
	}
}

// Supported reports whether name has an extension Extract can handle.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ExtZip, ExtSevenZip, ExtRar:
		return true
	}
	return false
}

// Extract unpacks archivePath into destDir and returns the distinct top-level
// names it produced, in archive order. Any failure is an *ExtractionError;
// files already written are left for the caller to clean up.
func (x *Extractor) Extract(ctx context.Context, archivePath, destDir string) ([]string, error) {
	name := filepath.Base(archivePath)
	fail := func(err error) ([]string, error) {
		return nil, &ExtractionError{Archive: name, Err: err}
	}

	var walk walker
	switch strings.ToLower(filepath.Ext(archivePath)) {
	case ExtZip:
		walk = zipWalker(archivePath)
	case ExtSevenZip:
		walk = sevenZipWalker(archivePath)
	case ExtRar:
		walk = rarWalker(archivePath)
	default:
		return fail(fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(archivePath)))
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fail(fmt.Errorf("create destination: %w", err))
	}

	x.sampler.Reset()
	var (
		topLevel []string
		seen     = make(map[string]struct{})
		count    int
	)
	err := walk(func(m member, total int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := sanitize(m.name)
		if err != nil {
			return err
		}
		if rel == "" {
			return nil
		}
		if m.mode&fs.ModeSymlink != 0 {
			x.logger.Debug("skipping symbolic link in archive",
				logging.String(logging.FieldArchive, name),
				logging.String("member", m.name),
			)
			return nil
		}

		target := filepath.Join(destDir, filepath.FromSlash(rel))
		if m.dir {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", rel, err)
			}
		} else if err := writeMember(target, m); err != nil {
			return fmt.Errorf("write %s: %w", rel, err)
		}

		top := strings.SplitN(rel, "/", 2)[0]
		if _, ok := seen[top]; !ok {
			seen[top] = struct{}{}
			topLevel = append(topLevel, top)
		}
		count++
		x.progress(name, count, total)
		return nil
	})
	if err != nil {
		return fail(err)
	}
	x.logger.Debug("archive extracted",
		logging.String(logging.FieldArchive, name),
		logging.Int("members", count),
	)
	if len(topLevel) == 0 {
		return fail(errors.New("archive is empty"))
	}
	return topLevel, nil
}

// progress logs sampled extraction progress for formats with a known size.
func (x *Extractor) progress(name string, done, total int) {
	if total <= 0 {
		return
	}
	percent := float64(done) / float64(total) * 100
	if x.sampler.ShouldLog(percent, name) {
		x.logger.Debug("extracting archive",
			logging.String(logging.FieldArchive, name),
			logging.Float64("percent", percent),
		)
	}
}

// sanitize converts an archive member name into a slash separated path
// relative to the destination. "" means the member names the root itself.
func sanitize(name string) (string, error) {
	cleaned := strings.ReplaceAll(name, `\`, "/")
	if path.IsAbs(cleaned) || filepath.VolumeName(cleaned) != "" || (len(cleaned) > 1 && cleaned[1] == ':') {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	cleaned = path.Clean(cleaned)
	switch {
	case cleaned == ".":
		return "", nil
	case cleaned == ".." || strings.HasPrefix(cleaned, "../"):
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return cleaned, nil
}

func writeMember(target string, m member) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	perm := m.mode.Perm() | 0o600
	if m.mode.Perm() == 0 {
		perm = 0o644
	}
	rc, err := m.open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func zipWalker(archivePath string) walker {
	return func(visit func(member, int) error) error {
		zr, err := zip.OpenReader(archivePath)
		if err != nil {
			return fmt.Errorf("open zip: %w", err)
		}
		defer zr.Close()
		for _, file := range zr.File {
			if err := visit(member{
				name: file.Name,
				dir:  file.FileInfo().IsDir(),
				mode: file.Mode(),
				open: file.Open,
			}, len(zr.File)); err != nil {
				return err
			}
		}
		return nil
	}
}

func sevenZipWalker(archivePath string) walker {
	return func(visit func(member, int) error) error {
		sr, err := sevenzip.OpenReader(archivePath)
		if err != nil {
			return fmt.Errorf("open 7z: %w", err)
		}
		defer sr.Close()
		for _, file := range sr.File {
			if err := visit(member{
				name: file.Name,
				dir:  file.FileInfo().IsDir(),
				mode: file.Mode(),
				open: file.Open,
			}, len(sr.File)); err != nil {
				return err
			}
		}
		return nil
	}
}

func rarWalker(archivePath string) walker {
	return func(visit func(member, int) error) error {
		rr, err := rardecode.OpenReader(archivePath)
		if err != nil {
			return fmt.Errorf("open rar: %w", err)
		}
		defer rr.Close()
		for {
			header, err := rr.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read rar header: %w", err)
			}
			if err := visit(member{
				name: header.Name,
				dir:  header.IsDir,
				mode: header.Mode(),
				open: func() (io.ReadCloser, error) { return io.NopCloser(rr), nil },
			}, -1); err != nil {
				return err
			}
		}
	}
}
