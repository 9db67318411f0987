// Package viewer shows rendered thermostat charts in a desktop window.
package viewer

import (
	"image"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// RefreshFunc re-renders the chart. It returns a nil image when nothing
// changed.
type RefreshFunc func(force bool) (image.Image, error)

// Show displays img and blocks until the window is closed.
func Show(title string, img image.Image) {
	a := app.New()
	w := a.NewWindow(title)
	w.SetContent(chartCanvas(img))
	w.ShowAndRun()
}

// Watch displays img and calls refresh every interval, swapping in the new
// chart when one is returned. A Reload button forces a refresh. Errors are
// passed to onErr and the previous chart stays on screen. Watch blocks until
// the window is closed.
func Watch(title string, img image.Image, interval time.Duration, refresh RefreshFunc, onErr func(error)) {
	a := app.New()
	w := a.NewWindow(title)
	chart := chartCanvas(img)
	status := widget.NewLabel(statusText(time.Now()))

	var mu sync.Mutex
	update := func(force bool) {
		mu.Lock()
		next, err := refresh(force)
		mu.Unlock()
		if err != nil {
			if onErr != nil {
				onErr(err)
			}
			return
		}
		if next == nil {
			return
		}
		fyne.Do(func() {
			chart.Image = next
			chart.Refresh()
			status.SetText(statusText(time.Now()))
		})
	}

	reload := widget.NewButton("Reload", func() { go update(true) })
	w.SetContent(container.NewBorder(container.NewHBox(reload, status), nil, nil, nil, chart))

	done := make(chan struct{})
	w.SetOnClosed(func() { close(done) })
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				update(false)
			}
		}
	}()
	w.ShowAndRun()
}

func chartCanvas(img image.Image) *canvas.Image {
	c := canvas.NewImageFromImage(img)
	c.FillMode = canvas.ImageFillContain
	b := img.Bounds()
	c.SetMinSize(fyne.NewSize(float32(b.Dx()), float32(b.Dy())))
	return c
}

func statusText(t time.Time) string {
	return "Updated " + t.Format("15:04:05")
}
