package fhsweep

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/iti/fhsweep/logger"
	"golang.org/x/sync/errgroup"
)

// ArchiveDir writes dir, relative to base, into base/dir.tar.gz and then removes dir.
// Entry names are relative to base, so the archive unpacks to the folder itself.
// Returns the archive's path and size.
func ArchiveDir(ctx context.Context, base, dir string) (string, int64, error) {
	src := filepath.Join(base, dir)
	info, err := os.Stat(src)
	if err != nil {
		return "", 0, err
	}
	if !info.IsDir() {
		return "", 0, fmt.Errorf("%s is not a directory", src)
	}

	archive := src + ".tar.gz"
	if err := writeTarGz(ctx, base, dir, archive); err != nil {
		os.Remove(archive)
		return "", 0, fmt.Errorf("archive %s: %w", src, err)
	}

	st, err := os.Stat(archive)
	if err != nil {
		return "", 0, err
	}
	if err := os.RemoveAll(src); err != nil {
		return archive, st.Size(), fmt.Errorf("remove %s: %w", src, err)
	}
	return archive, st.Size(), nil
}

func writeTarGz(ctx context.Context, base, dir, archive string) (err error) {
	f, err := os.Create(archive)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	err = filepath.WalkDir(filepath.Join(base, dir), func(name string, d fs.DirEntry, werr error) error {
		if werr != nil {
			return werr
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(base, name)
		if err != nil {
			return err
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if d.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		src, err := os.Open(name)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(tw, src)
		return err
	})
	if err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

// An Archiver compresses result folders in the background, at most Workers at a time,
// while the runner goes on with the next simulation
type Archiver struct {
	base string
	rl   *RunLog
	g    *errgroup.Group
	ctx  context.Context
	m    *Metrics
}

// NewArchiver creates a pool archiving folders under base and recording the outcome in rl
func NewArchiver(ctx context.Context, base string, workers int, rl *RunLog, m *Metrics) *Archiver {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	return &Archiver{base: base, rl: rl, g: g, ctx: gctx, m: m}
}

// Submit queues the folder of the record at pos.  It blocks while all workers are busy.
// A failed archive is recorded against its run and does not stop the others.
func (ar *Archiver) Submit(pos int, folder string) {
	ar.g.Go(func() error {
		archive, size, err := ArchiveDir(ar.ctx, ar.base, folder)
		ar.rl.SetArchive(pos, archive, size, err)
		if err != nil {
			logger.RunLog.WithField("folder", folder).Errorf("archive failed: %v", err)
			if ar.m != nil {
				ar.m.ArchiveFailures.Inc()
			}
			return nil
		}
		if ar.m != nil {
			ar.m.ArchiveBytes.Add(float64(size))
		}
		logger.RunLog.WithField("folder", folder).Debugf("archived to %s (%d bytes)", archive, size)
		return nil
	})
}

// Wait blocks until every submitted folder is archived
func (ar *Archiver) Wait() error {
	return ar.g.Wait()
}
