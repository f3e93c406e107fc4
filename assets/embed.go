// Package assets embute os glifos dos dígitos e os templates sazonais.
//
// Layout:
//
//	numbers/0.png ... numbers/9.png
//	templates/count.png, halloween.png, christmas.png
//	templates/advent/01.png ... templates/advent/22.png
package assets

import "embed"

//go:embed numbers templates
var FS embed.FS
