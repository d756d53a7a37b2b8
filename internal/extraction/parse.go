package extraction

import (
	"encoding/json"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	labelLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "Bullet", Pattern: `(?:\d+[.)]|[-*•])[ \t]+`},
		{Name: "FrontLabel", Pattern: `(?i:front|question|q)[ \t]*:`},
		{Name: "BackLabel", Pattern: `(?i:back|answer|a)[ \t]*:`},
		{Name: "Text", Pattern: `[^\n]+`},
	})

	labelParser = participle.MustBuild[labelledDocument](
		participle.Lexer(labelLexer),
		participle.Elide("Whitespace", "Bullet"),
		participle.UseLookahead(2),
	)
)

// labelledDocument is model output written as labelled lines:
//
//	Q: What is the capital of France?
//	A: Paris
//
// Any text before the first label is ignored, as are list markers such as
// "1." or "-" at the start of a line.
type labelledDocument struct {
	Preamble []string       `parser:"Newline* ( @Text Newline* )*"`
	Pairs    []*labelledPair `parser:"( @@ Newline* )+"`
}

// labelledPair may lack a back when the output was cut off; such pairs are
// dropped without losing the others.
type labelledPair struct {
	Front []string      `parser:"FrontLabel @Text? ( Newline @Text )*"`
	Back  *labelledBack `parser:"( Newline* @@ )?"`
}

type labelledBack struct {
	Label bool     `parser:"@BackLabel"`
	Lines []string `parser:"@Text? ( Newline @Text )*"`
}

// jsonPairs accepts {"cards": [...]} as well as a bare array.
type jsonPairs struct {
	Cards []Pair `json:"cards"`
}

// ParsePairs turns raw model output into pairs. It tries JSON first, then
// labelled Front/Back (or Q/A) lines. When neither yields a pair it returns a
// single pair with an empty front and the raw text as back. Blank input yields
// no pairs.
func ParsePairs(raw string) []Pair {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}

	if pairs, ok := parseJSON(stripCodeFence(text)); ok {
		return pairs
	}
	if pairs, ok := parseLabelled(text); ok {
		return pairs
	}
	return []Pair{{Back: text}}
}

func parseJSON(text string) ([]Pair, bool) {
	var pairs []Pair
	switch {
	case strings.HasPrefix(text, "{"):
		var doc jsonPairs
		if err := json.Unmarshal([]byte(text), &doc); err != nil {
			return nil, false
		}
		pairs = doc.Cards
	case strings.HasPrefix(text, "["):
		if err := json.Unmarshal([]byte(text), &pairs); err != nil {
			return nil, false
		}
	default:
		return nil, false
	}
	return compact(pairs)
}

func parseLabelled(text string) ([]Pair, bool) {
	doc, err := labelParser.ParseString("", text+"\n")
	if err != nil {
		return nil, false
	}
	pairs := make([]Pair, 0, len(doc.Pairs))
	for _, p := range doc.Pairs {
		if p.Back == nil {
			continue
		}
		pairs = append(pairs, Pair{Front: joinLines(p.Front), Back: joinLines(p.Back.Lines)})
	}
	return compact(pairs)
}

// compact trims every pair and drops blank ones. It reports false when nothing
// is left.
func compact(pairs []Pair) ([]Pair, bool) {
	out := pairs[:0]
	for _, p := range pairs {
		p.Front = strings.TrimSpace(p.Front)
		p.Back = strings.TrimSpace(p.Back)
		if p.Empty() {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

func joinLines(lines []string) string {
	trimmed := make([]string, 0, len(lines))
	for _, l := range lines {
		trimmed = append(trimmed, strings.TrimSpace(l))
	}
	return strings.Join(trimmed, "\n")
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
