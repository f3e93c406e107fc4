package domain

import "errors"

// Classes de erro. Cada erro é uma instância única para permitir errors.Is;
// a classe permite decidir o status HTTP sem conhecer o erro exato.
type InvalidError string
type NotFoundError string
type ProcessError string

// manter em ordem alfabética
var (
	ErrCalendarNotTotal  = InvalidError("last seasonal rule must be unconditional")
	ErrCountTooLarge     = InvalidError("count has more than 39 digits")
	ErrEncodeImage       = ProcessError("png encoding failed")
	ErrGlyphCount        = InvalidError("glyph set must hold exactly 10 glyphs")
	ErrGlyphSize         = InvalidError("glyphs must share the same size")
	ErrInvalidCount      = InvalidError("count is not a decimal integer")
	ErrInvalidRule       = InvalidError("seasonal rule needs a name and a selector")
	ErrMissingGlyph      = NotFoundError("glyph is missing")
	ErrMissingTemplate   = NotFoundError("template is missing")
	ErrNegativeCount     = InvalidError("count must not be negative")
	ErrSourceUnavailable = ProcessError("counter source unavailable")
	ErrUnknownSource     = NotFoundError("unknown source")
)

func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }

// determina a classe de um erro (também através de wrapping com %w)
func IsErrInvalid(e error) bool {
	var target InvalidError
	return errors.As(e, &target)
}

func IsErrNotFound(e error) bool {
	var target NotFoundError
	return errors.As(e, &target)
}

func IsErrProcess(e error) bool {
	var target ProcessError
	return errors.As(e, &target)
}
