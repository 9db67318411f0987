package viewer

import (
	"image"
	"testing"
	"time"

	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
)

func TestChartCanvasKeepsImageSize(t *testing.T) {
	test.NewTempApp(t)
	img := image.NewRGBA(image.Rect(0, 0, 320, 200))
	c := chartCanvas(img)

	assert.Equal(t, canvas.ImageFillContain, c.FillMode)
	assert.Equal(t, float32(320), c.MinSize().Width)
	assert.Equal(t, float32(200), c.MinSize().Height)
	assert.Same(t, img, c.Image.(*image.RGBA))
}

func TestStatusText(t *testing.T) {
	at := time.Date(2019, 5, 1, 14, 3, 9, 0, time.UTC)
	assert.Equal(t, "Updated 14:03:09", statusText(at))
}
