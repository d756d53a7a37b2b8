package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/phrazzld/cardstock/internal/domain"
	"github.com/phrazzld/cardstock/internal/layout"
)

// ErrPageOutOfRange is returned when a page index is outside the job.
var ErrPageOutOfRange = errors.New("page index out of range")

// ErrRendererClosed is returned by a PreviewRenderer after Close.
var ErrRendererClosed = errors.New("preview renderer closed")

// ErrInvalidScale is returned for a preview scale outside (0, MaxPreviewScale].
var ErrInvalidScale = errors.New("invalid preview scale")

// MaxPreviewScale bounds preview rasters; 2x a legal sheet is about 1224x2016 px.
const MaxPreviewScale = 2.0

// ValidateScale reports whether scale can size a preview raster. NaN and
// infinities are rejected.
func ValidateScale(scale float64) error {
	if !(scale > 0 && scale <= MaxPreviewScale) {
		return fmt.Errorf("%w: must be in (0, %g], got %g", ErrInvalidScale, MaxPreviewScale, scale)
	}
	return nil
}

// PreviewRenderer rasterises single pages of a print job to PNG.
type PreviewRenderer struct {
	images ImageSource
	logger *slog.Logger

	fontOnce sync.Once
	fontErr  error
	fonts    map[fontKey]*text.FontSource
}

type fontKey struct {
	mono, bold, italic bool
}

// NewPreviewRenderer creates a PNG preview renderer. images may be nil.
func NewPreviewRenderer(images ImageSource, logger *slog.Logger) *PreviewRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreviewRenderer{
		images: images,
		logger: logger.With(slog.String("component", "preview_renderer")),
	}
}

// RenderPage draws page index of job at scale and writes it to w as PNG.
func (r *PreviewRenderer) RenderPage(ctx context.Context, job layout.PrintJob, index int, scale float64, w io.Writer) error {
	if index < 0 || index >= len(job.Pages) {
		return fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, index, len(job.Pages))
	}
	if err := ValidateScale(scale); err != nil {
		return err
	}
	if err := r.loadFonts(); err != nil {
		return err
	}
	if r.fonts == nil {
		return ErrRendererClosed
	}

	sheet := PageSheet(job.Capacity, job.Pages[index], scale)
	width := int(math.Ceil(sheet.Width))
	height := int(math.Ceil(sheet.Height))

	dc := gg.NewContext(width, height)
	defer func() { _ = dc.Close() }()

	dc.SetHexColor("#ffffff")
	dc.DrawRectangle(0, 0, float64(width), float64(height))
	if err := dc.Fill(); err != nil {
		return fmt.Errorf("failed to paint page: %w", err)
	}

	for _, p := range sheet.Placements {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.drawPlacement(ctx, dc, p, scale); err != nil {
			return err
		}
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	return nil
}

// RenderPageBytes is RenderPage into a byte slice.
func (r *PreviewRenderer) RenderPageBytes(ctx context.Context, job layout.PrintJob, index int, scale float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.RenderPage(ctx, job, index, scale, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *PreviewRenderer) loadFonts() error {
	r.fontOnce.Do(func() {
		sources := map[fontKey][]byte{
			{}:                         goregular.TTF,
			{bold: true}:               gobold.TTF,
			{italic: true}:             goitalic.TTF,
			{bold: true, italic: true}: gobolditalic.TTF,
			{mono: true}:               gomono.TTF,
		}
		r.fonts = make(map[fontKey]*text.FontSource, len(sources))
		for key, data := range sources {
			src, err := text.NewFontSource(data)
			if err != nil {
				r.fontErr = fmt.Errorf("failed to load embedded font: %w", err)
				return
			}
			r.fonts[key] = src
		}
	})
	return r.fontErr
}

// Close releases the loaded fonts. Call it once rendering has stopped.
func (r *PreviewRenderer) Close() error {
	var firstErr error
	for _, src := range r.fonts {
		if err := src.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.fonts = nil
	return firstErr
}

func (r *PreviewRenderer) drawPlacement(ctx context.Context, dc *gg.Context, p Placement, scale float64) error {
	dc.SetHexColor(hexColor(p.BackgroundColor, domain.DefaultSideBgColor))
	dc.DrawRectangle(p.X, p.Y, p.Width, p.Height)
	if err := dc.Fill(); err != nil {
		return fmt.Errorf("failed to paint card: %w", err)
	}
	dc.SetHexColor(cutLineColor)
	dc.SetLineWidth(1)
	dc.DrawRectangle(p.X, p.Y, p.Width, p.Height)
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("failed to outline card: %w", err)
	}

	if p.BackgroundImage != "" {
		r.drawImage(ctx, dc, p.BackgroundImage, p.X, p.Y, p.Width, p.Height)
	}

	for _, el := range p.Elements {
		if err := r.drawElement(ctx, dc, p, el, scale); err != nil {
			return err
		}
	}
	return nil
}

func (r *PreviewRenderer) drawElement(ctx context.Context, dc *gg.Context, p Placement, el domain.Element, scale float64) error {
	x, y := p.X+el.X, p.Y+el.Y

	dc.Push()
	defer dc.Pop()
	if el.Rotation != 0 {
		dc.RotateAbout(el.Rotation*math.Pi/180, x+el.Width/2, y+el.Height/2)
	}

	switch el.Kind {
	case domain.KindShape:
		dc.SetHexColor(hexColor(el.BackgroundColor, domain.DefaultShapeFill))
		if el.Shape() == domain.ShapeCircle {
			dc.DrawEllipse(x+el.Width/2, y+el.Height/2, el.Width/2, el.Height/2)
		} else {
			dc.DrawRectangle(x, y, el.Width, el.Height)
		}
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("failed to paint shape: %w", err)
		}

	case domain.KindImage:
		r.drawImage(ctx, dc, el.Content, x, y, el.Width, el.Height)

	case domain.KindText:
		if bg := hexColor(el.BackgroundColor, ""); bg != "" {
			dc.SetHexColor(bg)
			dc.DrawRectangle(x, y, el.Width, el.Height)
			if err := dc.Fill(); err != nil {
				return fmt.Errorf("failed to paint text background: %w", err)
			}
		}
		r.drawText(dc, el, x, y, scale)
	}
	return nil
}

// drawText writes glyphs straight to the raster, so text in previews is not
// rotated with its element.
func (r *PreviewRenderer) drawText(dc *gg.Context, el domain.Element, x, y, scale float64) {
	size := el.FontSize
	if size <= 0 {
		size = domain.DefaultFontSize * scale
	}

	key := fontKey{mono: isMonospace(el.FontFamily)}
	if !key.mono {
		key.bold = isBold(el.FontWeight)
		key.italic = isItalic(el.FontStyle)
	}
	dc.SetFont(r.fonts[key].Face(size))
	dc.SetHexColor(hexColor(el.Color, domain.DefaultTextColor))

	measure := func(s string) float64 {
		w, _ := dc.MeasureString(s)
		return w
	}
	_, lineHeight := dc.MeasureString("Mg")
	if lineHeight <= 0 {
		lineHeight = size * 1.2
	}

	baseline := y + size
	for _, line := range wrapText(el.Content, el.Width, measure) {
		dc.DrawString(line, x, baseline)
		baseline += lineHeight
	}
}

func (r *PreviewRenderer) drawImage(ctx context.Context, dc *gg.Context, locator string, x, y, w, h float64) {
	if r.images == nil || locator == "" || w <= 0 || h <= 0 {
		return
	}
	img, err := r.images.Open(ctx, locator)
	if err != nil {
		r.logger.Warn("skipping image", slog.String("error", err.Error()))
		return
	}
	dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		X:         x,
		Y:         y,
		DstWidth:  w,
		DstHeight: h,
	})
}
