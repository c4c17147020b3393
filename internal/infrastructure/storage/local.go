package storage

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	defaultUploadExt    = ".jpg"
	defaultGeneratedExt = ".png"
)

// LocalStore keeps uploads and generated images on the local filesystem
type LocalStore struct {
	uploadsDir   string
	generatedDir string
}

// NewLocalStore creates both directories if needed
func NewLocalStore(uploadsDir, generatedDir string) (*LocalStore, error) {
	for _, dir := range []string{uploadsDir, generatedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
		}
	}
	return &LocalStore{uploadsDir: uploadsDir, generatedDir: generatedDir}, nil
}

// GeneratedDir returns the directory served under /generated
func (s *LocalStore) GeneratedDir() string {
	return s.generatedDir
}

// SaveUpload writes an uploaded file as <uuid><ext> and returns its path.
// The extension comes from the client file name, .jpg when it has none.
func (s *LocalStore) SaveUpload(data []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = defaultUploadExt
	}

	path := filepath.Join(s.uploadsDir, uuid.NewString()+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// SaveGenerated writes a generator output as <prefix>_<uuid><ext> and returns
// the file name. The extension is sniffed from the content, .png otherwise.
func (s *LocalStore) SaveGenerated(data []byte, prefix string) (string, error) {
	ext := defaultGeneratedExt
	if mt := mimetype.Detect(data); strings.HasPrefix(mt.String(), "image/") && mt.Extension() != "" {
		ext = mt.Extension()
	}

	name := fmt.Sprintf("%s_%s%s", prefix, uuid.NewString(), ext)
	if err := os.WriteFile(filepath.Join(s.generatedDir, name), data, 0o644); err != nil {
		return "", err
	}
	return name, nil
}

// Exists reports whether a generated file with this name is on disk
func (s *LocalStore) Exists(name string) bool {
	if name == "" || filepath.Base(name) != name {
		return false
	}
	info, err := os.Stat(filepath.Join(s.generatedDir, name))
	return err == nil && info.Mode().IsRegular()
}

// Hash returns the hex MD5 of a file
func (s *LocalStore) Hash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Prepare decodes an image, scales it to cover width x height, center-crops
// it and returns it PNG encoded.
func (s *LocalStore) Prepare(path string, width, height int) ([]byte, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	fitted := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
