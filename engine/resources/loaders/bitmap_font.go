package loaders

import (
	"bytes"
	"fmt"

	"github.com/fzipp/bmfont"
)

/**
 * @brief A structure to hold bitmap font resource data. The page images
 * referenced by the descriptor are separate assets in the same bundle.
 */
type BitmapFontData struct {
	Face       string
	SizePoints int
	LineHeight int
	Descriptor *bmfont.Descriptor
}

// BitmapFontDecoder parses .fnt bitmap font descriptors.
type BitmapFontDecoder struct{}

func (BitmapFontDecoder) Decode(name string, data []byte) (interface{}, error) {
	desc, err := bmfont.ReadDescriptor(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse bitmap font '%s': %w", name, err)
	}
	return &BitmapFontData{
		Face:       desc.Info.Face,
		SizePoints: desc.Info.Size,
		LineHeight: desc.Common.LineHeight,
		Descriptor: desc,
	}, nil
}
