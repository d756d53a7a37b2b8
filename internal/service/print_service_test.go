package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/cardstock/internal/domain"
	"github.com/phrazzld/cardstock/internal/layout"
	"github.com/phrazzld/cardstock/internal/render"
	"github.com/phrazzld/cardstock/internal/task"
)

type printFixture struct {
	svc      PrintService
	cards    *memCardStore
	pdf      *stubPDF
	pages    *stubPages
	cache    *memCache
	verified int
	userID   uuid.UUID
	deckID   uuid.UUID
}

func newPrintFixture(t *testing.T, cardCount int, verify PDFVerifier) *printFixture {
	t.Helper()
	f := &printFixture{
		cards:  newMemCardStore(),
		pdf:    &stubPDF{},
		pages:  &stubPages{},
		cache:  newMemCache(),
		userID: uuid.New(),
		deckID: uuid.New(),
	}
	for i := 0; i < cardCount; i++ {
		c := newOwnedCard(f.userID, f.deckID, i)
		f.cards.cards[c.ID] = c.Clone()
	}

	runner := task.NewTaskRunner(task.TaskRunnerConfig{WorkerCount: 3, QueueSize: 10}, testLogger())
	runner.Start()
	t.Cleanup(runner.Stop)

	if verify == nil {
		verify = func([]byte, layout.PrintJob) error {
			f.verified++
			return nil
		}
	}

	svc, err := NewPrintService(PrintDependencies{
		Cards:  f.cards,
		PDF:    f.pdf,
		Pages:  f.pages,
		Runner: runner,
		Verify: verify,
		Cache:  f.cache,
	}, PrintConfig{}, testLogger())
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestNewPrintServiceRequiresDependencies(t *testing.T) {
	_, err := NewPrintService(PrintDependencies{}, PrintConfig{}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = NewPrintService(PrintDependencies{Cards: newMemCardStore(), PDF: &stubPDF{}, Pages: &stubPages{}}, PrintConfig{}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestParseExportFormat(t *testing.T) {
	f, err := ParseExportFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	f, err = ParseExportFormat("PNG")
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, f)

	_, err = ParseExportFormat("svg")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLayout(t *testing.T) {
	f := newPrintFixture(t, 0, nil)

	capacity, err := f.svc.Layout(layout.PrintSettings{})
	require.NoError(t, err)
	assert.Equal(t, 2, capacity.CardsPerRow)
	assert.Equal(t, 1, capacity.RowsPerPage)
	assert.Equal(t, 2, capacity.CardsPerPage)

	_, err = f.svc.Layout(layout.PrintSettings{CardSize: layout.CardCustom, CustomWidth: 20, CustomHeight: 20})
	assert.ErrorIs(t, err, layout.ErrCardDoesNotFit)

	_, err = f.svc.Layout(layout.PrintSettings{PaperSize: "tabloid"})
	assert.ErrorIs(t, err, layout.ErrUnknownPaperSize)
}

func TestPresets(t *testing.T) {
	f := newPrintFixture(t, 0, nil)
	assert.Equal(t, layout.DefaultPresets(), f.svc.Presets())
}

func TestPlanPaginatesInDeckOrder(t *testing.T) {
	f := newPrintFixture(t, 3, nil)

	job, err := f.svc.Plan(context.Background(), f.userID, f.deckID, layout.PrintSettings{IncludeBack: true})

	require.NoError(t, err)
	require.Len(t, job.Pages, 4)
	assert.Equal(t, domain.SideFront, job.Pages[0].Side)
	assert.Equal(t, domain.SideBack, job.Pages[2].Side)
	require.Len(t, job.Pages[0].Cards, 2)
	assert.Equal(t, 0, job.Pages[0].Cards[0].Position)
	assert.Equal(t, 1, job.Pages[0].Cards[1].Position)
	assert.Equal(t, 2, job.Pages[1].Cards[0].Position)
}

func TestPlanErrors(t *testing.T) {
	f := newPrintFixture(t, 2, nil)
	ctx := context.Background()

	_, err := f.svc.Plan(ctx, uuid.New(), f.deckID, layout.PrintSettings{})
	assert.ErrorIs(t, err, ErrNotOwned)

	_, err = f.svc.Plan(ctx, f.userID, f.deckID, layout.PrintSettings{CardSize: layout.CardCustom, CustomWidth: 30, CustomHeight: 1})
	assert.ErrorIs(t, err, layout.ErrCardDoesNotFit)

	f.cards.listErr = errors.New("timeout")
	_, err = f.svc.Plan(ctx, f.userID, f.deckID, layout.PrintSettings{})
	var serviceErr *ServiceError
	assert.ErrorAs(t, err, &serviceErr)
}

func TestPlanEmptyDeck(t *testing.T) {
	f := newPrintFixture(t, 0, nil)

	job, err := f.svc.Plan(context.Background(), f.userID, f.deckID, layout.PrintSettings{})

	require.NoError(t, err)
	assert.Empty(t, job.Pages)
}

func TestExportPDFIsVerifiedAndCached(t *testing.T) {
	f := newPrintFixture(t, 3, nil)
	ctx := context.Background()

	first, err := f.svc.Export(ctx, f.userID, f.deckID, ExportRequest{Format: FormatPDF})
	require.NoError(t, err)
	assert.Equal(t, "%PDF pages=2", string(first.Data))
	assert.Equal(t, ContentTypePDF, first.ContentType)
	assert.Equal(t, 2, first.Pages)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, f.verified)

	second, err := f.svc.Export(ctx, f.userID, f.deckID, ExportRequest{})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, 1, f.pdf.calls)
}

func TestExportCacheKeyFollowsContent(t *testing.T) {
	f := newPrintFixture(t, 1, nil)
	ctx := context.Background()

	_, err := f.svc.Export(ctx, f.userID, f.deckID, ExportRequest{})
	require.NoError(t, err)

	cards, err := f.cards.ListByDeck(ctx, f.deckID)
	require.NoError(t, err)
	require.NoError(t, f.cards.UpdateContent(ctx, cards[0].ID, "renamed", cards[0].Front, cards[0].Back))

	again, err := f.svc.Export(ctx, f.userID, f.deckID, ExportRequest{})
	require.NoError(t, err)
	assert.False(t, again.Cached)
	assert.Equal(t, 2, f.pdf.calls)
}

func TestExportVerificationFailure(t *testing.T) {
	mismatch := func([]byte, layout.PrintJob) error { return render.ErrExportMismatch }
	f := newPrintFixture(t, 1, mismatch)

	_, err := f.svc.Export(context.Background(), f.userID, f.deckID, ExportRequest{})

	assert.ErrorIs(t, err, render.ErrExportMismatch)
	var serviceErr *ServiceError
	assert.ErrorAs(t, err, &serviceErr)
	assert.Zero(t, f.cache.len())
}

func TestExportPNGPage(t *testing.T) {
	f := newPrintFixture(t, 3, nil)

	export, err := f.svc.Export(context.Background(), f.userID, f.deckID, ExportRequest{Format: FormatPNG, Page: 1})

	require.NoError(t, err)
	assert.Equal(t, "page-1@0.25", string(export.Data))
	assert.Equal(t, ContentTypePNG, export.ContentType)

	export, err = f.svc.Export(context.Background(), f.userID, f.deckID, ExportRequest{Format: FormatPNG, Page: 1, Scale: 1})
	require.NoError(t, err)
	assert.Equal(t, "page-1@1", string(export.Data))
	assert.False(t, export.Cached)
}

func TestExportErrors(t *testing.T) {
	f := newPrintFixture(t, 1, nil)
	ctx := context.Background()

	_, err := f.svc.Export(ctx, f.userID, f.deckID, ExportRequest{Format: "svg"})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = f.svc.Export(ctx, uuid.New(), f.deckID, ExportRequest{})
	assert.ErrorIs(t, err, ErrNotOwned)

	f.pdf.err = render.ErrEmptyJob
	_, err = f.svc.Export(ctx, f.userID, f.deckID, ExportRequest{})
	assert.ErrorIs(t, err, render.ErrEmptyJob)
}

func TestExportRejectsUnusableScale(t *testing.T) {
	f := newPrintFixture(t, 2, nil)
	ctx := context.Background()

	for _, scale := range []float64{math.NaN(), math.Inf(1), -0.5, render.MaxPreviewScale + 1} {
		_, err := f.svc.Export(ctx, f.userID, f.deckID, ExportRequest{Format: FormatPNG, Scale: scale})
		assert.ErrorIs(t, err, render.ErrInvalidScale, "scale %g", scale)

		_, err = f.svc.Previews(ctx, f.userID, f.deckID, layout.PrintSettings{}, scale)
		assert.ErrorIs(t, err, render.ErrInvalidScale, "scale %g", scale)
	}
	assert.Zero(t, f.pages.count())
	assert.Zero(t, f.cache.len())
}

func TestExportKeyUnencodableJob(t *testing.T) {
	deckID := uuid.New()
	job := layout.PrintJob{}

	assert.Empty(t, exportKey(deckID, job, FormatPNG, 0, math.NaN()))
	assert.NotEmpty(t, exportKey(deckID, job, FormatPNG, 0, render.PreviewScale))
}

func TestPreviewsRenderEveryPage(t *testing.T) {
	f := newPrintFixture(t, 5, nil)
	ctx := context.Background()

	previews, err := f.svc.Previews(ctx, f.userID, f.deckID, layout.PrintSettings{IncludeBack: true}, 0)

	require.NoError(t, err)
	require.Len(t, previews, 6)
	for i, data := range previews {
		assert.Equal(t, fmt.Sprintf("page-%d@0.25", i), string(data))
	}
	assert.Equal(t, 6, f.pages.count())

	again, err := f.svc.Previews(ctx, f.userID, f.deckID, layout.PrintSettings{IncludeBack: true}, 0)
	require.NoError(t, err)
	assert.Equal(t, previews, again)
	assert.Equal(t, 6, f.pages.count(), "second call is served from the cache")
}

func TestPreviewsEmptyDeck(t *testing.T) {
	f := newPrintFixture(t, 0, nil)

	previews, err := f.svc.Previews(context.Background(), f.userID, f.deckID, layout.PrintSettings{}, 0)

	require.NoError(t, err)
	assert.Empty(t, previews)
}

func TestInvalidateDeckDropsCachedExports(t *testing.T) {
	f := newPrintFixture(t, 2, nil)
	ctx := context.Background()
	_, err := f.svc.Export(ctx, f.userID, f.deckID, ExportRequest{})
	require.NoError(t, err)
	other := uuid.New()
	require.NoError(t, f.cache.Set(ctx, "cardstock:export:"+other.String()+":abc", []byte("x")))

	require.NoError(t, f.svc.InvalidateDeck(ctx, f.deckID))

	assert.Equal(t, 1, f.cache.len())
	_, err = f.svc.Export(ctx, f.userID, f.deckID, ExportRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, f.pdf.calls)
}
