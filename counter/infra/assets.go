package infra

import (
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os"
	"path"

	"github.com/bitmark-inc/logger"

	"neko-counter/counter/domain"
)

const (
	GlyphDir    = "numbers"
	TemplateDir = "templates"
)

// BlankTotalSize é o lado da imagem vazia usada quando não existe total inicial.
const BlankTotalSize = 128

// LoadGlyphs lê numbers/0.png ... numbers/9.png.
func LoadGlyphs(fsys fs.FS) (domain.GlyphSet, error) {
	glyphs := make([]image.Image, domain.DigitCount)
	for d := range glyphs {
		img, err := decodePNG(fsys, path.Join(GlyphDir, fmt.Sprintf("%d.png", d)))
		if err != nil {
			return domain.GlyphSet{}, err
		}
		glyphs[d] = img
	}
	return domain.NewGlyphSet(glyphs)
}

// LoadTemplates lê templates/<id>.png para todos os domain.TemplateIDs.
func LoadTemplates(fsys fs.FS) (domain.Templates, error) {
	src := make(map[domain.TemplateID]image.Image)
	for _, id := range domain.TemplateIDs() {
		img, err := decodePNG(fsys, path.Join(TemplateDir, string(id)+".png"))
		if err != nil {
			return domain.Templates{}, err
		}
		src[id] = img
	}
	return domain.NewTemplates(src)
}

// InitialTotal carrega a imagem total de startup de file. Se o arquivo não
// existir ou não for um PNG válido, retorna uma imagem transparente 128x128.
func InitialTotal(file string) image.Image {
	log := logger.New("assets")

	f, err := os.Open(file)
	if err != nil {
		log.Infof("no initial total image (%s), starting blank", err)
		return image.NewRGBA(image.Rect(0, 0, BlankTotalSize, BlankTotalSize))
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		log.Warnf("initial total image %q is not a valid png: %s", file, err)
		return image.NewRGBA(image.Rect(0, 0, BlankTotalSize, BlankTotalSize))
	}
	log.Infof("initial total image: %s", file)
	return img
}

func decodePNG(fsys fs.FS, name string) (image.Image, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("asset %s: %w", name, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("asset %s: %w", name, err)
	}
	return img, nil
}
