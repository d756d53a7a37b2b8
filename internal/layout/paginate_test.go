package layout_test

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/phrazzld/cardstock/internal/domain"
	"github.com/phrazzld/cardstock/internal/layout"
)

func makeCards(n int) []domain.Card {
	userID, deckID := uuid.New(), uuid.New()
	cards := make([]domain.Card, n)
	for i := range cards {
		c, err := domain.NewCard(userID, deckID, "", i)
		Expect(err).NotTo(HaveOccurred())
		cards[i] = *c
	}
	return cards
}

func ids(cards []domain.Card) []uuid.UUID {
	out := make([]uuid.UUID, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

var _ = Describe("GeneratePrintPages", func() {
	var (
		cards []domain.Card
		s     layout.PrintSettings
	)

	BeforeEach(func() {
		cards = makeCards(5)
		s = layout.DefaultSettings()
	})

	It("chunks fronts by page capacity in card order", func() {
		job, err := layout.GeneratePrintPages(cards, s)
		Expect(err).NotTo(HaveOccurred())
		Expect(job.Capacity.CardsPerPage).To(Equal(2))
		Expect(job.Pages).To(HaveLen(3))

		var sizes []int
		var covered []uuid.UUID
		for i, p := range job.Pages {
			Expect(p.Side).To(Equal(domain.SideFront))
			Expect(p.Number).To(Equal(i + 1))
			sizes = append(sizes, len(p.Cards))
			covered = append(covered, ids(p.Cards)...)
		}
		Expect(sizes).To(Equal([]int{2, 2, 1}))
		Expect(covered).To(Equal(ids(cards)))
		Expect(job.SheetCount()).To(Equal(3))
	})

	It("repeats identical chunks as back pages after all fronts", func() {
		s.IncludeBack = true
		job, err := layout.GeneratePrintPages(cards, s)
		Expect(err).NotTo(HaveOccurred())
		Expect(job.Pages).To(HaveLen(6))

		fronts := job.PagesFor(domain.SideFront)
		backs := job.PagesFor(domain.SideBack)
		Expect(fronts).To(HaveLen(3))
		Expect(backs).To(HaveLen(3))

		for i := 0; i < 3; i++ {
			Expect(job.Pages[i].Side).To(Equal(domain.SideFront))
			Expect(job.Pages[i+3].Side).To(Equal(domain.SideBack))
			Expect(ids(backs[i].Cards)).To(Equal(ids(fronts[i].Cards)))
			Expect(backs[i].Number).To(Equal(fronts[i].Number))
		}
		Expect(job.SheetCount()).To(Equal(3))
	})

	It("returns an empty job for an empty deck", func() {
		job, err := layout.GeneratePrintPages(nil, s)
		Expect(err).NotTo(HaveOccurred())
		Expect(job.Pages).To(BeEmpty())
		Expect(job.Capacity.CardsPerPage).To(Equal(2))
	})

	It("refuses settings where no card fits", func() {
		s.CardSize = layout.CardCustom
		s.CustomWidth = 9
		s.CustomHeight = 3

		_, err := layout.GeneratePrintPages(cards, s)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, layout.ErrCardDoesNotFit)).To(BeTrue())

		var layoutErr *layout.LayoutError
		Expect(errors.As(err, &layoutErr)).To(BeTrue())
		Expect(layoutErr.Capacity.CardsPerRow).To(BeZero())
		Expect(strings.Contains(err.Error(), "custom 9x3in on letter")).To(BeTrue(), err.Error())
	})

	It("does not share page storage with the caller", func() {
		job, err := layout.GeneratePrintPages(cards, s)
		Expect(err).NotTo(HaveOccurred())

		job.Pages[0].Cards[0].Title = "mutated"
		Expect(cards[0].Title).To(BeEmpty())
	})

	It("puts every card on its own page when one fits per sheet", func() {
		s.CardSize = layout.Card5x8
		s.IncludeBack = true
		job, err := layout.GeneratePrintPages(cards, s)
		Expect(err).NotTo(HaveOccurred())
		Expect(job.Pages).To(HaveLen(10))
		for _, p := range job.Pages {
			Expect(p.Cards).To(HaveLen(1))
		}
	})
})
