package application

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math/big"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"golang.org/x/image/draw"

	"neko-counter/counter/domain"
)

// TotalOffsetX é a coluna onde a faixa de dígitos começa no template.
const TotalOffsetX = 560

// Compositor monta as imagens a partir dos glifos e templates.
//
// Todas as operações são puras: não há estado mutável além do pool de
// buffers do encoder PNG, então um único Compositor atende todos os requests.
type Compositor struct {
	glyphs    domain.GlyphSet
	templates domain.Templates
	calendar  *domain.Calendar
	encoder   png.Encoder
	log       *logger.L
}

func NewCompositor(glyphs domain.GlyphSet, templates domain.Templates, calendar *domain.Calendar) *Compositor {
	if calendar == nil {
		calendar = domain.DefaultCalendar()
	}
	return &Compositor{
		glyphs:    glyphs,
		templates: templates,
		calendar:  calendar,
		encoder: png.Encoder{
			CompressionLevel: png.DefaultCompression,
			BufferPool:       &encoderPool{},
		},
		log: logger.New("compositor"),
	}
}

// DigitStrip desenha os dígitos decimais de n lado a lado, sem fundo.
//
// Largura = largura do glifo * quantidade de dígitos, altura = altura do glifo.
func (c *Compositor) DigitStrip(n *big.Int) (*image.RGBA, error) {
	if err := domain.ValidateCount(n); err != nil {
		return nil, err
	}

	digits := domain.CountKey(n)
	size := c.glyphs.Size()
	strip := image.NewRGBA(image.Rect(0, 0, size.X*len(digits), size.Y))

	for i := 0; i < len(digits); i++ {
		glyph := c.glyphs.Glyph(int(digits[i] - '0'))
		cell := image.Rect(i*size.X, 0, (i+1)*size.X, size.Y)
		draw.Draw(strip, cell, glyph, image.Point{}, draw.Over)
	}
	return strip, nil
}

// Compose copia o template e desenha a faixa em x = TotalOffsetX, centralizada
// na vertical. O resultado tem o tamanho do template.
func (c *Compositor) Compose(template image.Image, strip image.Image) *image.RGBA {
	base := domain.ToRGBA(template)
	b := base.Bounds()
	sb := strip.Bounds()

	at := image.Pt(TotalOffsetX, (b.Dy()-sb.Dy())/2)
	draw.Copy(base, at, strip, sb, draw.Over, nil)
	return base
}

// Season escolhe o template da data. Se o calendário não casar nenhuma regra
// o erro é registrado e o template padrão é usado.
func (c *Compositor) Season(at time.Time) (domain.Selection, *image.RGBA) {
	sel := c.calendar.Pick(at)
	if sel.Fallback {
		c.log.Errorf("no seasonal rule matched %s, using %q", at.Format("2006-01-02"), sel.Template)
	}

	tpl, ok := c.templates.Get(sel.Template)
	if !ok {
		c.log.Errorf("template %q for season %q not loaded, using %q", sel.Template, sel.Rule, domain.TemplateDefault)
		tpl, _ = c.templates.Get(domain.TemplateDefault)
	}
	return sel, tpl
}

// RenderCount implementa domain.Renderer: só a faixa de dígitos.
func (c *Compositor) RenderCount(n *big.Int) (domain.Image, error) {
	strip, err := c.DigitStrip(n)
	if err != nil {
		return domain.Image{}, err
	}
	return c.Encode(strip)
}

// RenderTotal implementa domain.Renderer: faixa sobre o template sazonal de at.
func (c *Compositor) RenderTotal(n *big.Int, at time.Time) (domain.Image, error) {
	strip, err := c.DigitStrip(n)
	if err != nil {
		return domain.Image{}, err
	}

	sel, tpl := c.Season(at)
	if tpl == nil {
		return domain.Image{}, fmt.Errorf("season %q: %w", sel.Rule, domain.ErrMissingTemplate)
	}
	c.log.Debugf("season: %s template: %s", sel.Rule, sel.Template)

	return c.Encode(c.Compose(tpl, strip))
}

// Encode gera o PNG. Erro aqui é violação de invariante e nunca retorna bytes parciais.
func (c *Compositor) Encode(img image.Image) (domain.Image, error) {
	var buf bytes.Buffer
	if err := c.encoder.Encode(&buf, img); err != nil {
		return domain.Image{}, fmt.Errorf("%w: %v", domain.ErrEncodeImage, err)
	}
	return domain.NewImage(buf.Bytes()), nil
}

// encoderPool reaproveita os buffers internos do encoder entre renders.
type encoderPool struct {
	pool sync.Pool
}

func (p *encoderPool) Get() *png.EncoderBuffer {
	b, _ := p.pool.Get().(*png.EncoderBuffer)
	return b
}

func (p *encoderPool) Put(b *png.EncoderBuffer) {
	p.pool.Put(b)
}
