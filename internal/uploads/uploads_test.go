package uploads

import (
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func newMemFile(data []byte) multipart.File {
	return memFile{bytes.NewReader(data)}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newStorage(t *testing.T, maxImage, maxVideo int64) *Storage {
	t.Helper()
	s, err := NewStorage(t.TempDir(), maxImage, maxVideo)
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	return s
}

func TestSaveImageStoresUniqueName(t *testing.T) {
	s := newStorage(t, 0, 0)
	data := pngBytes(t)
	header := &multipart.FileHeader{Filename: "photo.png", Size: int64(len(data))}

	name, err := s.SaveImage(newMemFile(data), header)
	if err != nil {
		t.Fatalf("SaveImage returned error: %v", err)
	}
	if !strings.HasSuffix(name, ".png") {
		t.Fatalf("stored name %q does not keep extension", name)
	}
	if name == "photo.png" {
		t.Fatal("stored name should not reuse the client filename")
	}
	stored, err := os.ReadFile(filepath.Join(s.Dir(), name))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if !bytes.Equal(stored, data) {
		t.Fatal("stored bytes differ from upload")
	}
}

func TestSaveImageRejectsBadExtension(t *testing.T) {
	s := newStorage(t, 0, 0)
	header := &multipart.FileHeader{Filename: "script.exe", Size: 4}
	if _, err := s.SaveImage(newMemFile([]byte("data")), header); err != ErrInvalidExtension {
		t.Fatalf("expected ErrInvalidExtension, got %v", err)
	}
}

func TestSaveImageRejectsNonImagePayload(t *testing.T) {
	s := newStorage(t, 0, 0)
	header := &multipart.FileHeader{Filename: "fake.png", Size: 9}
	if _, err := s.SaveImage(newMemFile([]byte("not a png")), header); err != ErrInvalidImage {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
}

func TestSaveImageRejectsMissingFile(t *testing.T) {
	s := newStorage(t, 0, 0)
	if _, err := s.SaveImage(newMemFile(nil), nil); err != ErrNoFile {
		t.Fatalf("expected ErrNoFile, got %v", err)
	}
}

func TestSaveVideoEnforcesSizeCap(t *testing.T) {
	s := newStorage(t, 0, 10)
	data := bytes.Repeat([]byte("x"), 32)
	header := &multipart.FileHeader{Filename: "clip.mp4"}

	if _, err := s.SaveVideo(newMemFile(data), header); err != ErrFileTooLarge {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected partial file removed, found %d entries", len(entries))
	}
}

func TestSaveVideoAcceptsWithinCap(t *testing.T) {
	s := newStorage(t, 0, 64)
	data := []byte("tiny video payload")
	header := &multipart.FileHeader{Filename: "clip.webm", Size: int64(len(data))}

	name, err := s.SaveVideo(newMemFile(data), header)
	if err != nil {
		t.Fatalf("SaveVideo returned error: %v", err)
	}
	if !strings.HasSuffix(name, ".webm") {
		t.Fatalf("stored name %q does not keep extension", name)
	}
}

func TestRemoveMissingFileIsNoError(t *testing.T) {
	s := newStorage(t, 0, 0)
	if err := s.Remove("does-not-exist.png"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
}
