package loaders

import (
	"bytes"
	"fmt"
	"image"

	// registered image formats
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

/**
 * @brief A structure to hold image resource data.
 */
type ImageData struct {
	/** @brief The decoded pixels. */
	Image image.Image
	/** @brief The source format name (png, jpeg, bmp). */
	Format string
	/** @brief The width of the image. */
	Width uint32
	/** @brief The height of the image. */
	Height uint32
}

// ImageDecoder decodes png, jpeg and bmp entries.
type ImageDecoder struct{}

func (ImageDecoder) Decode(name string, data []byte) (interface{}, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image '%s': %w", name, err)
	}
	bounds := img.Bounds()
	return &ImageData{
		Image:  img,
		Format: format,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}
