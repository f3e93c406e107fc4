package domain

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"golang.org/x/image/draw"
)

// Image é uma imagem já codificada em PNG.
//
// O buffer é imutável depois de criado: o cache entrega o mesmo Image para
// vários requests concorrentes, então ninguém pode escrever nele.
type Image struct {
	data []byte
}

// NewImage assume a posse de png; o chamador não deve mais alterá-lo.
func NewImage(png []byte) Image {
	return Image{data: png}
}

func (i Image) Len() int      { return len(i.data) }
func (i Image) IsZero() bool  { return len(i.data) == 0 }
func (i Image) Bytes() []byte { return bytes.Clone(i.data) }

func (i Image) Equal(other Image) bool { return bytes.Equal(i.data, other.data) }

// WriteTo escreve o PNG sem copiar o buffer.
func (i Image) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(i.data)
	return int64(n), err
}

// DigitCount é o número de glifos de um GlyphSet (dígitos 0-9).
const DigitCount = 10

// GlyphSet guarda os glifos dos dígitos; o índice é o valor do dígito.
// Todos os glifos têm o mesmo tamanho e origem em (0,0).
type GlyphSet struct {
	glyphs [DigitCount]*image.RGBA
	size   image.Point
}

// NewGlyphSet copia os glifos para RGBA e valida quantidade e tamanho.
func NewGlyphSet(glyphs []image.Image) (GlyphSet, error) {
	if len(glyphs) != DigitCount {
		return GlyphSet{}, ErrGlyphCount
	}

	var set GlyphSet
	for d, g := range glyphs {
		if g == nil {
			return GlyphSet{}, fmt.Errorf("digit %d: %w", d, ErrMissingGlyph)
		}
		rgba := ToRGBA(g)
		size := rgba.Bounds().Size()
		if d == 0 {
			set.size = size
		} else if size != set.size {
			return GlyphSet{}, fmt.Errorf("digit %d is %v, digit 0 is %v: %w", d, size, set.size, ErrGlyphSize)
		}
		set.glyphs[d] = rgba
	}
	if set.size.X == 0 || set.size.Y == 0 {
		return GlyphSet{}, fmt.Errorf("empty glyph: %w", ErrGlyphSize)
	}
	return set, nil
}

// Glyph retorna o glifo do dígito d (0-9).
func (g GlyphSet) Glyph(d int) *image.RGBA { return g.glyphs[d] }

// Size é largura x altura comum a todos os glifos.
func (g GlyphSet) Size() image.Point { return g.size }

// TemplateID identifica um template de cabeçalho; também é o caminho do
// arquivo dentro do diretório de templates (sem a extensão .png).
type TemplateID string

const (
	TemplateDefault   TemplateID = "count"
	TemplateHalloween TemplateID = "halloween"
	TemplateChristmas TemplateID = "christmas"
)

// AdventDays é a quantidade de variantes do calendário do advento (1 a 22 de dezembro).
const AdventDays = 22

// AdventTemplate retorna a variante de índice idx (0 = dia 1, 21 = dia 22).
func AdventTemplate(idx int) TemplateID {
	return TemplateID(fmt.Sprintf("advent/%02d", idx+1))
}

// TemplateIDs lista todos os templates que precisam existir no startup.
func TemplateIDs() []TemplateID {
	ids := []TemplateID{TemplateDefault, TemplateHalloween, TemplateChristmas}
	for i := 0; i < AdventDays; i++ {
		ids = append(ids, AdventTemplate(i))
	}
	return ids
}

// Templates é o conjunto imutável de templates carregados.
type Templates struct {
	byID map[TemplateID]*image.RGBA
}

// NewTemplates exige que todos os TemplateIDs estejam presentes.
func NewTemplates(src map[TemplateID]image.Image) (Templates, error) {
	t := Templates{byID: make(map[TemplateID]*image.RGBA, len(src))}
	for _, id := range TemplateIDs() {
		img, ok := src[id]
		if !ok || img == nil {
			return Templates{}, fmt.Errorf("template %q: %w", id, ErrMissingTemplate)
		}
		t.byID[id] = ToRGBA(img)
	}
	return t, nil
}

func (t Templates) Get(id TemplateID) (*image.RGBA, bool) {
	img, ok := t.byID[id]
	return img, ok
}

// ToRGBA copia img para um *image.RGBA novo com origem em (0,0).
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
