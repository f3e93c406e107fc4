package application

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"testing"

	"github.com/bitmark-inc/logger"

	"neko-counter/counter/domain"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "application-test")
	if err != nil {
		panic(err)
	}

	logConfig := logger.Configuration{
		Directory: dir,
		File:      "application.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}
	if err := logger.Initialise(logConfig); err != nil {
		panic(fmt.Sprintf("logger initialization failed: %s", err))
	}

	code := m.Run()

	logger.Finalise()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

const (
	glyphW = 3
	glyphH = 5
)

// cor única por dígito para conferir a posição de cada glifo
func glyphColor(d int) color.RGBA {
	return color.RGBA{R: uint8(10 + d*20), G: uint8(200 - d*10), B: 7, A: 255}
}

var templateColor = color.RGBA{R: 1, G: 2, B: 3, A: 255}

func fill(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func testGlyphs(t testing.TB) domain.GlyphSet {
	t.Helper()
	src := make([]image.Image, domain.DigitCount)
	for d := range src {
		src[d] = fill(glyphW, glyphH, glyphColor(d))
	}
	set, err := domain.NewGlyphSet(src)
	if err != nil {
		t.Fatalf("glyphs: %v", err)
	}
	return set
}

func testTemplates(t testing.TB) domain.Templates {
	t.Helper()
	src := make(map[domain.TemplateID]image.Image)
	for i, id := range domain.TemplateIDs() {
		// cada template com um azul diferente para identificar a estação
		c := templateColor
		c.B = uint8(i)
		src[id] = fill(640, 21, c)
	}
	tpl, err := domain.NewTemplates(src)
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	return tpl
}

func testCompositor(t testing.TB) *Compositor {
	t.Helper()
	return NewCompositor(testGlyphs(t), testTemplates(t), nil)
}
