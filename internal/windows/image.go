package windows

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrNoFile is returned when an upload is attempted without a file.
	ErrNoFile = errors.New("no file selected")
	// ErrNotImage is returned when the selected file is not declared as an image.
	ErrNotImage = errors.New("file must be an image")
)

// Image is a file selected for upload.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// OpenImage reads the file at path and declares its content type from the
// extension, falling back to content sniffing.
func OpenImage(path string) (Image, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Image{}, ErrNoFile
	}
	path = expandHome(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("read image: %w", err)
	}
	return Image{
		Name:        filepath.Base(path),
		ContentType: declaredType(path, data),
		Data:        data,
	}, nil
}

// Validate checks the selection before anything is sent.
func (img Image) Validate() error {
	if strings.TrimSpace(img.Name) == "" {
		return ErrNoFile
	}
	if !strings.HasPrefix(strings.ToLower(img.ContentType), "image/") {
		return fmt.Errorf("%w: %s is %s", ErrNotImage, img.Name, displayType(img.ContentType))
	}
	return nil
}

func declaredType(path string, data []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct
	}
	if len(data) == 0 {
		return ""
	}
	return http.DetectContentType(data)
}

func displayType(ct string) string {
	if ct == "" {
		return "of unknown type"
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	return ct
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// ImageURL resolves src against an image host the way the web front end's
// image loader does. With no base the source URL is returned unchanged.
func ImageURL(base, src string, width, quality int) string {
	base = strings.TrimSpace(base)
	if base == "" || src == "" {
		return src
	}
	if quality <= 0 {
		quality = 75
	}
	values := url.Values{}
	values.Set("w", strconv.Itoa(width))
	values.Set("q", strconv.Itoa(quality))
	return base + src + "?" + values.Encode()
}
