package render

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/phrazzld/cardstock/internal/domain"
	"github.com/phrazzld/cardstock/internal/layout"
)

// MillimetersPerPoint converts layout points to canvas millimetres.
const MillimetersPerPoint = 25.4 / layout.PointsPerInch

// ErrEmptyJob is returned when a print job has no pages to render.
var ErrEmptyJob = errors.New("print job has no pages")

const (
	cutLineColor = "#d0d0d0"
	cutLineWidth = 0.1 // mm
)

func mm(pt float64) float64 { return pt * MillimetersPerPoint }

// PDFRenderer writes print jobs as multi-page PDF documents at ExportScale.
type PDFRenderer struct {
	images ImageSource
	logger *slog.Logger

	fontOnce sync.Once
	fontErr  error
	sans     *canvas.FontFamily
	mono     *canvas.FontFamily
}

// NewPDFRenderer creates a PDF renderer. images may be nil, in which case
// image elements render as placeholders.
func NewPDFRenderer(images ImageSource, logger *slog.Logger) *PDFRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFRenderer{
		images: images,
		logger: logger.With(slog.String("component", "pdf_renderer")),
	}
}

// Render writes job to w, one PDF page per job page, each sized to the
// (oriented) paper.
func (r *PDFRenderer) Render(ctx context.Context, job layout.PrintJob, w io.Writer) error {
	if len(job.Pages) == 0 {
		return ErrEmptyJob
	}
	if err := r.loadFonts(); err != nil {
		return err
	}

	sheets := Sheets(job, ExportScale)
	writer := pdf.New(w, mm(sheets[0].Width), mm(sheets[0].Height), nil)
	writer.SetInfo("Index cards", job.Settings.String(), "", "", "cardstock")

	for i, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i > 0 {
			writer.NewPage(mm(sheet.Width), mm(sheet.Height))
		}

		c := canvas.New(mm(sheet.Width), mm(sheet.Height))
		cx := canvas.NewContext(c)
		cx.SetCoordSystem(canvas.CartesianIV)
		r.drawSheet(ctx, cx, sheet)
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}

	r.logger.Debug("rendered print job",
		slog.Int("pages", len(sheets)),
		slog.String("settings", job.Settings.String()))
	return nil
}

func (r *PDFRenderer) loadFonts() error {
	r.fontOnce.Do(func() {
		sans := canvas.NewFontFamily("Go")
		for _, f := range []struct {
			data  []byte
			style canvas.FontStyle
		}{
			{goregular.TTF, canvas.FontRegular},
			{gobold.TTF, canvas.FontBold},
			{goitalic.TTF, canvas.FontItalic},
			{gobolditalic.TTF, canvas.FontBold | canvas.FontItalic},
		} {
			if err := sans.LoadFont(f.data, 0, f.style); err != nil {
				r.fontErr = fmt.Errorf("failed to load embedded font: %w", err)
				return
			}
		}

		mono := canvas.NewFontFamily("Go Mono")
		if err := mono.LoadFont(gomono.TTF, 0, canvas.FontRegular); err != nil {
			r.fontErr = fmt.Errorf("failed to load embedded font: %w", err)
			return
		}
		r.sans, r.mono = sans, mono
	})
	return r.fontErr
}

func (r *PDFRenderer) drawSheet(ctx context.Context, cx *canvas.Context, sheet Sheet) {
	for _, p := range sheet.Placements {
		cx.SetFillColor(canvas.Hex(hexColor(p.BackgroundColor, domain.DefaultSideBgColor)))
		cx.SetStrokeColor(canvas.Hex(cutLineColor))
		cx.SetStrokeWidth(cutLineWidth)
		cx.DrawPath(mm(p.X), mm(p.Y), canvas.Rectangle(mm(p.Width), mm(p.Height)))

		if p.BackgroundImage != "" {
			r.drawImage(ctx, cx, p.BackgroundImage, p.X, p.Y, p.Width)
		}

		for _, el := range p.Elements {
			r.drawElement(ctx, cx, p, el)
		}
	}
}

func (r *PDFRenderer) drawElement(ctx context.Context, cx *canvas.Context, p Placement, el domain.Element) {
	x, y := p.X+el.X, p.Y+el.Y

	if el.Rotation != 0 {
		cx.Push()
		defer cx.Pop()
		cx.ComposeView(canvas.Identity.RotateAbout(el.Rotation, mm(x+el.Width/2), mm(y+el.Height/2)))
	}

	cx.SetStrokeColor(color.RGBA{})
	cx.SetStrokeWidth(0)

	switch el.Kind {
	case domain.KindShape:
		cx.SetFillColor(canvas.Hex(hexColor(el.BackgroundColor, domain.DefaultShapeFill)))
		if el.Shape() == domain.ShapeCircle {
			cx.DrawPath(mm(x+el.Width/2), mm(y+el.Height/2), canvas.Ellipse(mm(el.Width/2), mm(el.Height/2)))
			return
		}
		cx.DrawPath(mm(x), mm(y), canvas.Rectangle(mm(el.Width), mm(el.Height)))

	case domain.KindImage:
		r.drawImage(ctx, cx, el.Content, x, y, el.Width)

	case domain.KindText:
		if bg := hexColor(el.BackgroundColor, ""); bg != "" {
			cx.SetFillColor(canvas.Hex(bg))
			cx.DrawPath(mm(x), mm(y), canvas.Rectangle(mm(el.Width), mm(el.Height)))
		}
		r.drawText(cx, el, x, y)
	}
}

func (r *PDFRenderer) drawText(cx *canvas.Context, el domain.Element, x, y float64) {
	size := el.FontSize
	if size <= 0 {
		size = domain.DefaultFontSize * ExportScale
	}

	family := r.sans
	if isMonospace(el.FontFamily) {
		family = r.mono
	}
	style := canvas.FontRegular
	if isBold(el.FontWeight) {
		style |= canvas.FontBold
	}
	if isItalic(el.FontStyle) {
		style |= canvas.FontItalic
	}
	if family == r.mono {
		style = canvas.FontRegular
	}

	face := family.Face(size, canvas.Hex(hexColor(el.Color, domain.DefaultTextColor)), style, canvas.FontNormal)
	metrics := face.Metrics()

	cursor := mm(y)
	for _, line := range wrapText(el.Content, mm(el.Width), face.TextWidth) {
		cx.DrawText(mm(x), cursor+metrics.Ascent, canvas.NewTextLine(face, line, canvas.Left))
		cursor += metrics.LineHeight
	}
}

func (r *PDFRenderer) drawImage(ctx context.Context, cx *canvas.Context, locator string, x, y, width float64) {
	if r.images == nil || locator == "" || width <= 0 {
		return
	}
	img, err := r.images.Open(ctx, locator)
	if err != nil {
		r.logger.Warn("skipping image", slog.String("error", err.Error()))
		return
	}
	dpmm := float64(img.Bounds().Dx()) / mm(width)
	if dpmm <= 0 {
		return
	}
	cx.DrawImage(mm(x), mm(y), img, canvas.DPMM(dpmm))
}
