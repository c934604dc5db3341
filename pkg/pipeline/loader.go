package pipeline

import (
	"fmt"

	"github.com/disintegration/imaging"
)

// FileLoader decodes an image straight off disk via
// disintegration/imaging, auto-orienting it per any EXIF tag.
type FileLoader struct{}

func (FileLoader) Load(path string) (ImageSource, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return ImageSource{}, fmt.Errorf("decode image %s: %w", path, err)
	}
	return ImageSource{Path: path, Image: img}, nil
}
