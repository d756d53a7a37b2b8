package layout_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/phrazzld/cardstock/internal/layout"
)

var _ = Describe("Presets", func() {
	It("ships valid built-in presets", func() {
		presets := layout.DefaultPresets()
		Expect(presets).NotTo(BeEmpty())

		classic, err := presets.Find("classic")
		Expect(err).NotTo(HaveOccurred())
		Expect(classic.Settings).To(Equal(layout.DefaultSettings()))

		for _, p := range presets {
			c, err := layout.CalculateLayout(p.Settings)
			Expect(err).NotTo(HaveOccurred(), p.Name)
			Expect(c.Fits()).To(BeTrue(), p.Name)
		}
	})

	It("loads presets and fills defaults", func() {
		doc := `
presets:
  - name: tiny
    card_size: custom
    custom_width: 2
    custom_height: 3
    include_back: true
`
		presets, err := layout.LoadPresets(strings.NewReader(doc))
		Expect(err).NotTo(HaveOccurred())
		Expect(presets).To(HaveLen(1))

		p := presets[0]
		Expect(p.Settings.CardSize).To(Equal(layout.CardCustom))
		Expect(p.Settings.CustomWidth).To(Equal(2.0))
		Expect(p.Settings.PaperSize).To(Equal(layout.PaperLetter))
		Expect(p.Settings.IncludeBack).To(BeTrue())
	})

	DescribeTable("rejects invalid documents",
		func(doc, want string) {
			_, err := layout.LoadPresets(strings.NewReader(doc))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring(want))
		},
		Entry("missing name", "presets:\n  - card_size: 3x5\n", "missing name"),
		Entry("duplicate name", "presets:\n  - name: a\n  - name: a\n", "defined twice"),
		Entry("unknown paper", "presets:\n  - name: a\n    paper_size: tabloid\n", "unknown paper size"),
		Entry("unknown field", "presets:\n  - name: a\n    colour: red\n", "colour"),
	)

	It("reports unknown preset names", func() {
		_, err := layout.DefaultPresets().Find("nope")
		Expect(err).To(MatchError(ContainSubstring("print preset not found")))
	})
})
