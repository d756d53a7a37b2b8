package layout_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/phrazzld/cardstock/internal/layout"
)

func settings(card layout.CardSize, paper layout.PaperSize, margin layout.Margin) layout.PrintSettings {
	return layout.PrintSettings{
		CardSize:    card,
		PaperSize:   paper,
		Orientation: layout.Portrait,
		Margin:      margin,
	}
}

var _ = Describe("CalculateLayout", func() {
	It("packs 3x5 cards on letter with normal margins two to a page", func() {
		c, err := layout.CalculateLayout(settings(layout.Card3x5, layout.PaperLetter, layout.MarginNormal))
		Expect(err).NotTo(HaveOccurred())

		Expect(c.Card).To(Equal(layout.Dimensions{Width: 216, Height: 360}))
		Expect(c.AvailableWidth).To(Equal(540.0))
		Expect(c.AvailableHeight).To(Equal(720.0))
		Expect(c.Spacing).To(Equal(18.0))
		Expect(c.CardsPerRow).To(Equal(2))
		Expect(c.RowsPerPage).To(Equal(1))
		Expect(c.CardsPerPage).To(Equal(2))
		Expect(c.Fits()).To(BeTrue())
	})

	It("fits a single 5x8 card on letter with normal margins", func() {
		c, err := layout.CalculateLayout(settings(layout.Card5x8, layout.PaperLetter, layout.MarginNormal))
		Expect(err).NotTo(HaveOccurred())

		Expect(c.Card).To(Equal(layout.Dimensions{Width: 360, Height: 576}))
		Expect(c.CardsPerRow).To(Equal(1))
		Expect(c.RowsPerPage).To(Equal(1))
		Expect(c.CardsPerPage).To(Equal(1))
	})

	DescribeTable("size tables",
		func(card layout.CardSize, paper layout.PaperSize, margin layout.Margin, perRow, rows int) {
			c, err := layout.CalculateLayout(settings(card, paper, margin))
			Expect(err).NotTo(HaveOccurred())
			Expect(c.CardsPerRow).To(Equal(perRow))
			Expect(c.RowsPerPage).To(Equal(rows))
			Expect(c.CardsPerPage).To(Equal(perRow * rows))
		},
		Entry("4x6 on letter, normal", layout.Card4x6, layout.PaperLetter, layout.MarginNormal, 1, 1),
		Entry("3x5 on legal, normal", layout.Card3x5, layout.PaperLegal, layout.MarginNormal, 2, 2),
		Entry("3x5 on a4, narrow", layout.Card3x5, layout.PaperA4, layout.MarginNarrow, 2, 2),
		Entry("3x5 on letter, narrow", layout.Card3x5, layout.PaperLetter, layout.MarginNarrow, 2, 2),
	)

	It("converts custom sizes from inches", func() {
		s := settings(layout.CardCustom, layout.PaperLetter, layout.MarginNormal)
		s.CustomWidth = 2
		s.CustomHeight = 3.5

		c, err := layout.CalculateLayout(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Card).To(Equal(layout.Dimensions{Width: 144, Height: 252}))
		Expect(c.CardsPerRow).To(Equal(3))
		Expect(c.RowsPerPage).To(Equal(2))
	})

	It("rejects a custom size without dimensions", func() {
		_, err := layout.CalculateLayout(settings(layout.CardCustom, layout.PaperLetter, layout.MarginNormal))
		Expect(err).To(MatchError(layout.ErrInvalidCustomSize))
	})

	It("reports zero capacity when the card is larger than the printable area", func() {
		s := settings(layout.CardCustom, layout.PaperLetter, layout.MarginNormal)
		s.CustomWidth = 8
		s.CustomHeight = 10

		c, err := layout.CalculateLayout(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.CardsPerRow).To(BeZero())
		Expect(c.CardsPerPage).To(BeZero())
		Expect(c.Fits()).To(BeFalse())
	})

	It("swaps paper dimensions in landscape", func() {
		s := settings(layout.Card3x5, layout.PaperLetter, layout.MarginNormal)
		s.Orientation = layout.Landscape

		c, err := layout.CalculateLayout(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Paper).To(Equal(layout.Dimensions{Width: 792, Height: 612}))
		Expect(c.AvailableWidth).To(Equal(720.0))
		Expect(c.AvailableHeight).To(Equal(540.0))
		Expect(c.CardsPerRow).To(Equal(3))
		Expect(c.RowsPerPage).To(Equal(1))
	})

	DescribeTable("unknown settings",
		func(mutate func(*layout.PrintSettings), want error) {
			s := layout.DefaultSettings()
			mutate(&s)
			_, err := layout.CalculateLayout(s)
			Expect(errors.Is(err, want)).To(BeTrue(), "got %v", err)
		},
		Entry("card size", func(s *layout.PrintSettings) { s.CardSize = "2x2" }, layout.ErrUnknownCardSize),
		Entry("paper size", func(s *layout.PrintSettings) { s.PaperSize = "tabloid" }, layout.ErrUnknownPaperSize),
		Entry("margin", func(s *layout.PrintSettings) { s.Margin = "wide" }, layout.ErrUnknownMargin),
		Entry("orientation", func(s *layout.PrintSettings) { s.Orientation = "diagonal" }, layout.ErrUnknownOrientation),
	)

	It("is a pure function of its inputs", func() {
		s := settings(layout.Card4x6, layout.PaperA4, layout.MarginNarrow)
		first, err := layout.CalculateLayout(s)
		Expect(err).NotTo(HaveOccurred())
		second, err := layout.CalculateLayout(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(first))
	})
})

var _ = Describe("Capacity.SlotOrigin", func() {
	It("fills rows from the margin corner", func() {
		c := layout.Calculate(layout.Dimensions{Width: 100, Height: 50}, layout.Dimensions{Width: 400, Height: 300}, 10)
		Expect(c.CardsPerRow).To(Equal(3))
		Expect(c.RowsPerPage).To(Equal(4))

		x, y := c.SlotOrigin(0)
		Expect([]float64{x, y}).To(Equal([]float64{10, 10}))

		x, y = c.SlotOrigin(2)
		Expect([]float64{x, y}).To(Equal([]float64{246, 10}))

		x, y = c.SlotOrigin(4)
		Expect([]float64{x, y}).To(Equal([]float64{128, 78}))

		x, y = c.SlotOrigin(12)
		Expect([]float64{x, y}).To(Equal([]float64{10, 10}), "slot indices wrap per page")
	})
})

var _ = Describe("PrintSettings", func() {
	It("fills defaults for empty fields", func() {
		s := layout.PrintSettings{CardSize: layout.Card4x6, IncludeBack: true}.WithDefaults()
		Expect(s.CardSize).To(Equal(layout.Card4x6))
		Expect(s.PaperSize).To(Equal(layout.PaperLetter))
		Expect(s.Orientation).To(Equal(layout.Portrait))
		Expect(s.Margin).To(Equal(layout.MarginNormal))
		Expect(s.IncludeBack).To(BeTrue())
		Expect(s.Validate()).To(Succeed())
	})

	It("describes itself", func() {
		Expect(layout.DefaultSettings().String()).To(Equal("3x5 on letter portrait, normal margin"))
	})
})
