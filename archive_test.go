package fhsweep

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// readTarGz lists the entries of a .tar.gz in order, with the contents of the regular files
func readTarGz(t *testing.T, archive string) ([]string, map[string]string) {
	t.Helper()
	f, err := os.Open(archive)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	names := []string{}
	contents := make(map[string]string)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
		if hdr.Typeflag == tar.TypeReg {
			b, err := io.ReadAll(tr)
			require.NoError(t, err)
			contents[hdr.Name] = string(b)
		}
	}
	return names, contents
}

func TestArchiveDir(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "run1", "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "run1", "a.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(base, "run1", "sub", "b.txt"), []byte("beta"), 0o644))

	archive, size, err := ArchiveDir(context.Background(), base, "run1")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(base, "run1.tar.gz"), archive)
	require.Greater(t, size, int64(0))
	require.NoDirExists(t, filepath.Join(base, "run1"))

	names, contents := readTarGz(t, archive)
	require.Equal(t, []string{"run1/", "run1/a.txt", "run1/sub/", "run1/sub/b.txt"}, names)
	require.Equal(t, "beta", contents["run1/sub/b.txt"])
}

func TestArchiveDirErrors(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "plain"), []byte("x"), 0o644))

	_, _, err := ArchiveDir(context.Background(), base, "plain")
	require.Error(t, err)
	_, _, err = ArchiveDir(context.Background(), base, "absent")
	require.Error(t, err)

	// a canceled archive leaves the folder in place and no partial file
	require.NoError(t, os.MkdirAll(filepath.Join(base, "run2"), 0o755))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = ArchiveDir(ctx, base, "run2")
	require.ErrorIs(t, err, context.Canceled)
	require.DirExists(t, filepath.Join(base, "run2"))
	require.NoFileExists(t, filepath.Join(base, "run2.tar.gz"))
}

func TestArchiverRecordsFailures(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "ok"), 0o755))

	rl := CreateRunLog("archiver")
	okPos := rl.AddRecord(RunRecord{Folder: "ok", Status: StatusOK})
	badPos := rl.AddRecord(RunRecord{Folder: "gone", Status: StatusOK})

	m := NewMetrics()
	ar := NewArchiver(context.Background(), base, 2, rl, m)
	ar.Submit(okPos, "ok")
	ar.Submit(badPos, "gone")
	require.NoError(t, ar.Wait())

	require.Equal(t, 1.0, testutil.ToFloat64(m.ArchiveFailures))
	require.Equal(t, StatusOK, rl.Records[okPos].Status)
	require.NotEmpty(t, rl.Records[okPos].Archive)
	require.Equal(t, StatusFailed, rl.Records[badPos].Status)
	require.NotEmpty(t, rl.Records[badPos].Error)
}
