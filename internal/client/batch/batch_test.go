package batch

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o660))
	return path
}

func TestNewFileHandle_StagesCopy(t *testing.T) {
	path := writeTempFile(t, "report.pdf", "pdf-bytes")

	h, err := NewFileHandle(path)
	require.NoError(t, err)
	defer h.Release()

	require.Equal(t, "report.pdf", h.Name)
	require.Equal(t, int64(len("pdf-bytes")), h.Size)
	require.Equal(t, "pdf", h.Format())

	// Changing the source after staging must not affect the handle.
	require.NoError(t, os.WriteFile(path, []byte("changed"), 0o660))

	r, err := h.Open()
	require.NoError(t, err)
	defer r.Close()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "pdf-bytes", string(got))
}

func TestNewFileHandle_RejectsDirectory(t *testing.T) {
	_, err := NewFileHandle(t.TempDir())
	require.Error(t, err)
}

func TestFileHandle_ReleaseIsIdempotent(t *testing.T) {
	h, err := NewFileHandle(writeTempFile(t, "a.txt", "x"))
	require.NoError(t, err)

	h.Release()
	h.Release()

	_, err = h.Open()
	require.Error(t, err)
}

func TestList_AddRemove(t *testing.T) {
	l := NewList()
	a, err := NewFileHandle(writeTempFile(t, "a.pdf", "a"))
	require.NoError(t, err)
	b, err := NewFileHandle(writeTempFile(t, "b.pdf", "b"))
	require.NoError(t, err)
	l.Add(a, b)
	require.Equal(t, 2, l.Len())

	l.Remove(0)
	require.Equal(t, 1, l.Len())
	require.Equal(t, "b.pdf", l.Items()[0].Name)

	// Removed handle must already be released.
	_, err = a.Open()
	require.Error(t, err)

	l.Remove(5) // out of range, ignored
	require.Equal(t, 1, l.Len())
}

func TestList_Move(t *testing.T) {
	l := NewList()
	names := []string{"1.pdf", "2.pdf", "3.pdf"}
	for _, n := range names {
		h, err := NewFileHandle(writeTempFile(t, n, n))
		require.NoError(t, err)
		l.Add(h)
	}
	defer l.Reset()

	l.Move(2, 0)
	got := []string{l.Items()[0].Name, l.Items()[1].Name, l.Items()[2].Name}
	require.Equal(t, []string{"3.pdf", "1.pdf", "2.pdf"}, got)

	l.Move(0, 9) // invalid, ignored
	require.Equal(t, "3.pdf", l.Items()[0].Name)
}

func TestList_ResetReleasesAll(t *testing.T) {
	l := NewList()
	h, err := NewFileHandle(writeTempFile(t, "a.pdf", "a"))
	require.NoError(t, err)
	l.Add(h)

	l.Reset()
	require.Equal(t, 0, l.Len())
	_, err = h.Open()
	require.Error(t, err)
}
