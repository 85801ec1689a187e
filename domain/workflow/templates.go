package workflow

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// resolveTemplate joins root and rel and checks the file exists.
func resolveTemplate(root, rel string) (string, error) {
	path := rel
	if !filepath.IsAbs(rel) {
		path = filepath.Join(root, rel)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return path, ErrTemplateNotFound
		}
		return path, fmt.Errorf("%w: %v", ErrTemplateLoad, err)
	}
	if info.IsDir() {
		return path, ErrTemplateNotFound
	}
	return path, nil
}

// loadTemplate decodes a raster file (png, jpeg, gif, bmp, webp).
func loadTemplate(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateLoad, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateLoad, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrTemplateLoad)
	}
	return img, nil
}
