package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"boxbridge/pkg/config"
	"boxbridge/pkg/pipeline"
	"boxbridge/pkg/preview"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "configuration file path")
	flag.Parse()
	source := "layout.jsx"
	if flag.NArg() > 0 {
		source = flag.Arg(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	p, err := pipeline.New(cfg, slog.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	a := app.New()
	w := a.NewWindow("boxview")
	w.Resize(fyne.NewSize(800, 600))

	canvasImg := canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	canvasImg.FillMode = canvas.ImageFillOriginal

	status := widget.NewLabel("Press Run to render " + source)

	sourceEntry := widget.NewEntry()
	sourceEntry.SetText(source)

	var last image.Image
	render := func() {
		path := sourceEntry.Text
		status.SetText("Rendering " + path + "...")
		go func() {
			res, img, err := p.RunAndPaint(context.Background(), path)
			fyne.Do(func() {
				if img == nil {
					status.SetText(fmt.Sprintf("%s: %v", res.Status, err))
					return
				}
				changed := ""
				if last != nil {
					if diff, err := preview.Compare(img, last, 0); err == nil {
						changed = fmt.Sprintf(", %d pixels changed", diff.DifferentPixels)
					}
				}
				last = img
				canvasImg.Image = img
				canvasImg.Refresh()
				msg := fmt.Sprintf("%s: %d boxes, %d bytes written to %s%s",
					path, res.Registry.Len(), len(res.Output), cfg.Output.Path, changed)
				if err != nil {
					msg += fmt.Sprintf(" (%v)", err)
				}
				status.SetText(msg)
				w.SetTitle("boxview - " + path)
			})
		}()
	}
	sourceEntry.OnSubmitted = func(string) { render() }
	runButton := widget.NewButton("Run", render)

	topBar := container.NewBorder(nil, nil, nil, runButton, sourceEntry)
	content := container.NewBorder(topBar, status, nil, nil, container.NewScroll(canvasImg))
	w.SetContent(content)
	w.Canvas().Focus(sourceEntry)

	w.ShowAndRun()
}
