package uploads

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNoFile           = errors.New("no file provided")
	ErrInvalidExtension = errors.New("file extension not allowed")
	ErrInvalidImage     = errors.New("file is not a valid image")
	ErrFileTooLarge     = errors.New("file exceeds size limit")
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

var videoExtensions = map[string]bool{
	".mp4":  true,
	".webm": true,
	".ogg":  true,
}

// Storage writes user uploads under a single directory with
// collision-proof names.
type Storage struct {
	dir      string
	maxImage int64
	maxVideo int64
}

func NewStorage(dir string, maxImage, maxVideo int64) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Storage{dir: dir, maxImage: maxImage, maxVideo: maxVideo}, nil
}

func (s *Storage) Dir() string {
	return s.dir
}

// SaveImage validates the extension and decodes the image header before
// persisting. Returns the stored filename.
func (s *Storage) SaveImage(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header == nil || header.Filename == "" {
		return "", ErrNoFile
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !imageExtensions[ext] {
		return "", ErrInvalidExtension
	}
	if s.maxImage > 0 && header.Size > s.maxImage {
		return "", ErrFileTooLarge
	}
	if _, _, err := image.DecodeConfig(file); err != nil {
		return "", ErrInvalidImage
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}
	return s.write(file, ext, s.maxImage)
}

// SaveVideo streams the upload to disk, enforcing the size cap as it
// copies. A partial file left by an oversize upload is removed.
func (s *Storage) SaveVideo(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header == nil || header.Filename == "" {
		return "", ErrNoFile
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !videoExtensions[ext] {
		return "", ErrInvalidExtension
	}
	if s.maxVideo > 0 && header.Size > s.maxVideo {
		return "", ErrFileTooLarge
	}
	return s.write(file, ext, s.maxVideo)
}

func (s *Storage) write(src io.Reader, ext string, limit int64) (string, error) {
	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	reader := src
	if limit > 0 {
		reader = io.LimitReader(src, limit+1)
	}
	written, err := io.Copy(dst, reader)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if limit > 0 && written > limit {
		os.Remove(path)
		return "", ErrFileTooLarge
	}
	return name, nil
}

// Remove deletes a previously stored upload. Missing files are not an
// error.
func (s *Storage) Remove(name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
