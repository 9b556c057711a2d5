package gui

import (
	"fmt"
	"image/color"
	"strings"
	"unicode"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

const (
	glyphWidth    = 3
	glyphHeight   = 5
	glyphAdvance  = glyphWidth + 1
	glyphYAdvance = glyphHeight + 1
)

// Glyph is a 1bpp 3x5 glyph. Bit 2 of each row is the leftmost pixel.
type Glyph struct {
	Rune rune
	Rows [glyphHeight]uint8
}

// Draw paints the glyph with its baseline at y.
func (g Glyph) Draw(display drivers.Displayer, x int16, y int16, c color.RGBA) {
	top := y - glyphHeight
	for j := int16(0); j < glyphHeight; j++ {
		row := g.Rows[j]
		for i := int16(0); i < glyphWidth; i++ {
			if row&(1<<(glyphWidth-1-i)) != 0 {
				display.SetPixel(x+i, top+j, c)
			}
		}
	}
}

func (g Glyph) Info() tinyfont.GlyphInfo {
	return tinyfont.GlyphInfo{
		Rune:     g.Rune,
		Width:    glyphWidth,
		Height:   glyphHeight,
		XAdvance: glyphAdvance,
		XOffset:  0,
		YOffset:  -glyphHeight,
	}
}

// Font is an upper-case ASCII pixel font. Lower-case letters render as upper
// case; other unknown runes render as '?'.
type Font struct {
	glyphs   map[rune]*Glyph
	fallback *Glyph
}

var _ tinyfont.Fonter = (*Font)(nil)

func (f *Font) GetYAdvance() uint8 { return glyphYAdvance }

func (f *Font) GetGlyph(r rune) tinyfont.Glypher {
	if g, ok := f.glyphs[unicode.ToUpper(r)]; ok {
		return g
	}
	return f.fallback
}

// Pixel3x5 is the kernel's only font.
var Pixel3x5 = mustFont(pixel3x5Rows)

func mustFont(rows map[rune]string) *Font {
	f := &Font{glyphs: make(map[rune]*Glyph, len(rows))}
	for r, pattern := range rows {
		g, err := parseGlyph(r, pattern)
		if err != nil {
			panic(err)
		}
		f.glyphs[r] = g
	}
	f.fallback = f.glyphs['?']
	return f
}

func parseGlyph(r rune, pattern string) (*Glyph, error) {
	fields := strings.Fields(pattern)
	if len(fields) != glyphHeight {
		return nil, fmt.Errorf("gui: glyph %q: %d rows, want %d", r, len(fields), glyphHeight)
	}
	g := &Glyph{Rune: r}
	for j, row := range fields {
		if len(row) != glyphWidth {
			return nil, fmt.Errorf("gui: glyph %q row %d: %q", r, j, row)
		}
		for i := 0; i < glyphWidth; i++ {
			if row[i] == '#' {
				g.Rows[j] |= 1 << (glyphWidth - 1 - i)
			}
		}
	}
	return g, nil
}

var pixel3x5Rows = map[rune]string{
	' ':  "... ... ... ... ...",
	'0':  "### #.# #.# #.# ###",
	'1':  ".#. ##. .#. .#. ###",
	'2':  "### ..# ### #.. ###",
	'3':  "### ..# .## ..# ###",
	'4':  "#.# #.# ### ..# ..#",
	'5':  "### #.. ### ..# ###",
	'6':  "### #.. ### #.# ###",
	'7':  "### ..# .#. .#. .#.",
	'8':  "### #.# ### #.# ###",
	'9':  "### #.# ### ..# ###",
	'A':  ".#. #.# ### #.# #.#",
	'B':  "##. #.# ##. #.# ##.",
	'C':  ".## #.. #.. #.. .##",
	'D':  "##. #.# #.# #.# ##.",
	'E':  "### #.. ##. #.. ###",
	'F':  "### #.. ##. #.. #..",
	'G':  ".## #.. #.# #.# .##",
	'H':  "#.# #.# ### #.# #.#",
	'I':  "### .#. .#. .#. ###",
	'J':  "..# ..# ..# #.# .#.",
	'K':  "#.# #.# ##. #.# #.#",
	'L':  "#.. #.. #.. #.. ###",
	'M':  "#.# ### ### #.# #.#",
	'N':  "##. #.# #.# #.# #.#",
	'O':  ".#. #.# #.# #.# .#.",
	'P':  "##. #.# ##. #.. #..",
	'Q':  ".#. #.# #.# ##. .##",
	'R':  "##. #.# ##. #.# #.#",
	'S':  ".## #.. .#. ..# ##.",
	'T':  "### .#. .#. .#. .#.",
	'U':  "#.# #.# #.# #.# ###",
	'V':  "#.# #.# #.# #.# .#.",
	'W':  "#.# #.# ### ### #.#",
	'X':  "#.# #.# .#. #.# #.#",
	'Y':  "#.# #.# .#. .#. .#.",
	'Z':  "### ..# .#. #.. ###",
	'.':  "... ... ... ... .#.",
	',':  "... ... ... .#. #..",
	':':  "... .#. ... .#. ...",
	'-':  "... ... ### ... ...",
	'+':  "... .#. ### .#. ...",
	'=':  "... ### ... ### ...",
	'_':  "... ... ... ... ###",
	'/':  "..# ..# .#. #.. #..",
	'#':  "#.# ### #.# ### #.#",
	'%':  "#.# ..# .#. #.. #.#",
	'*':  "#.# .#. #.# ... ...",
	'(':  ".#. #.. #.. #.. .#.",
	')':  ".#. ..# ..# ..# .#.",
	'[':  "##. #.. #.. #.. ##.",
	']':  ".## ..# ..# ..# .##",
	'<':  "..# .#. #.. .#. ..#",
	'>':  "#.. .#. ..# .#. #..",
	'!':  ".#. .#. .#. ... .#.",
	'?':  "##. ..# .#. ... .#.",
	'\'': ".#. .#. ... ... ...",
	'"':  "#.# #.# ... ... ...",
}
