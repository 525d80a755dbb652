package uploads

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
)

// 1x1 transparent GIF.
var gifBytes = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff!\xf9\x04\x01\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

type part struct {
	name string
	data []byte
}

// formFiles builds a parsed multipart form holding parts under "images".
func formFiles(t *testing.T, parts ...part) []*multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		w, err := mw.CreateFormFile("images", p.name)
		require.NoError(t, err)
		_, err = w.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&buf, mw.Boundary()).ReadForm(10 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["images"]
}

func newStore(t *testing.T, maxImages int) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "uploads"), 1<<20, maxImages)
	require.NoError(t, err)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return s
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	es, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range es {
		names = append(names, e.Name())
	}
	return names
}

func TestSaveAll_StoresInOrderWithSniffedExtension(t *testing.T) {
	s := newStore(t, 10)
	files := formFiles(t, part{"front.bin", gifBytes}, part{"side.jpeg", pngHeader})

	refs, err := s.SaveAll(files)
	require.NoError(t, err)
	require.Len(t, refs, 2)

	assert.True(t, strings.HasPrefix(refs[0], "/uploads/1700000000000-"))
	assert.True(t, strings.HasSuffix(refs[0], ".gif"))
	assert.True(t, strings.HasSuffix(refs[1], ".png"), "extension follows content, not filename")

	got, err := os.ReadFile(filepath.Join(s.Dir, filepath.Base(refs[0])))
	require.NoError(t, err)
	assert.Equal(t, gifBytes, got)
}

func TestSaveAll_RejectsNonImageAndCleansUp(t *testing.T) {
	s := newStore(t, 10)
	files := formFiles(t, part{"ok.gif", gifBytes}, part{"evil.png", []byte("#!/bin/sh\necho hi\n")})

	refs, err := s.SaveAll(files)
	assert.Nil(t, refs)
	ve, ok := domain.AsValidation(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, "images", ve.Field)
	assert.Empty(t, dirEntries(t, s.Dir), "first file must be removed")
}

func TestSaveAll_TooMany(t *testing.T) {
	s := newStore(t, 1)
	_, err := s.SaveAll(formFiles(t, part{"a.gif", gifBytes}, part{"b.gif", gifBytes}))
	_, ok := domain.AsValidation(err)
	assert.True(t, ok)
}

func TestSave_TooLarge(t *testing.T) {
	s := newStore(t, 10)
	s.MaxBytes = 4
	_, err := s.Save(formFiles(t, part{"a.gif", gifBytes})[0])
	_, ok := domain.AsValidation(err)
	assert.True(t, ok)
}

func TestRemove_IgnoresForeignReferences(t *testing.T) {
	s := newStore(t, 10)
	refs, err := s.SaveAll(formFiles(t, part{"a.gif", gifBytes}))
	require.NoError(t, err)

	s.Remove([]string{"/etc/passwd", "/uploads/../secret", "https://cdn.example.com/x.png"})
	assert.Len(t, dirEntries(t, s.Dir), 1)

	s.Remove(refs)
	assert.Empty(t, dirEntries(t, s.Dir))
}
