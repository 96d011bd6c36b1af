package loaders

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextDecoder(t *testing.T) {
	obj, err := TextDecoder{}.Decode("ui/motd.txt", []byte("welcome"))
	require.NoError(t, err)
	assert.Equal(t, "welcome", obj)
}

func TestBinaryDecoderCopies(t *testing.T) {
	src := []byte{1, 2, 3}
	obj, err := BinaryDecoder{}.Decode("blob.bin", src)
	require.NoError(t, err)

	out, ok := obj.([]byte)
	require.True(t, ok)
	require.Equal(t, src, out)

	// Mutating the source must not reach the decoded object.
	src[0] = 0xff
	assert.Equal(t, byte(1), out[0])
}

func TestImageDecoderPNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	obj, err := ImageDecoder{}.Decode("sprites/dot.png", buf.Bytes())
	require.NoError(t, err)

	data, ok := obj.(*ImageData)
	require.True(t, ok)
	assert.Equal(t, "png", data.Format)
	assert.Equal(t, uint32(2), data.Width)
	assert.Equal(t, uint32(3), data.Height)
	require.NotNil(t, data.Image)
}

func TestImageDecoderRejectsGarbage(t *testing.T) {
	_, err := ImageDecoder{}.Decode("sprites/bad.png", []byte("not an image"))
	require.Error(t, err)
}

const sampleFontDescriptor = `info face="TestFace" size=32 bold=0 italic=0 charset="" unicode=1 stretchH=100 smooth=1 aa=1 padding=0,0,0,0 spacing=1,1 outline=0
common lineHeight=36 base=29 scaleW=256 scaleH=256 pages=1 packed=0 alphaChnl=1 redChnl=4 greenChnl=4 blueChnl=4
page id=0 file="testface_0.png"
chars count=2
char id=65 x=0 y=0 width=20 height=24 xoffset=0 yoffset=5 xadvance=21 page=0 chnl=15
char id=66 x=21 y=0 width=19 height=24 xoffset=1 yoffset=5 xadvance=20 page=0 chnl=15
`

func TestBitmapFontDecoder(t *testing.T) {
	obj, err := BitmapFontDecoder{}.Decode("fonts/testface.fnt", []byte(sampleFontDescriptor))
	require.NoError(t, err)

	font, ok := obj.(*BitmapFontData)
	require.True(t, ok)
	assert.Equal(t, "TestFace", font.Face)
	assert.Equal(t, 32, font.SizePoints)
	assert.Equal(t, 36, font.LineHeight)
	require.NotNil(t, font.Descriptor)
}

func TestBitmapFontDecoderRejectsGarbage(t *testing.T) {
	_, err := BitmapFontDecoder{}.Decode("fonts/bad.fnt", []byte("not a font"))
	require.Error(t, err)
}
