package domain

import (
	"math/big"
	"strings"
)

// MaxCountDigits é o maior número de dígitos aceito numa contagem: cabe
// qualquer valor de 128 bits (2^128-1 tem 39 dígitos). Limita o tamanho da
// faixa de dígitos, que cresce uma largura de glifo por dígito.
const MaxCountDigits = 39

// countLimit = 10^MaxCountDigits, o menor valor rejeitado
var countLimit = new(big.Int).Exp(big.NewInt(10), big.NewInt(MaxCountDigits), nil)

// ParseCount converte o texto decimal de uma contagem em *big.Int.
//
// Aceita apenas dígitos ASCII (zeros à esquerda são permitidos e descartados
// na forma canônica). Um sinal de menos resulta em ErrNegativeCount; qualquer
// outro caractere em ErrInvalidCount; mais de MaxCountDigits dígitos
// significativos em ErrCountTooLarge.
func ParseCount(s string) (*big.Int, error) {
	if s == "" {
		return nil, ErrInvalidCount
	}
	if s[0] == '-' {
		return nil, ErrNegativeCount
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return nil, ErrInvalidCount
		}
	}
	if len(strings.TrimLeft(s, "0")) > MaxCountDigits {
		return nil, ErrCountTooLarge
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, ErrInvalidCount
	}
	return n, nil
}

// ValidateCount rejeita contagens nulas, negativas ou com mais de
// MaxCountDigits dígitos.
func ValidateCount(n *big.Int) error {
	if n == nil {
		return ErrInvalidCount
	}
	if n.Sign() < 0 {
		return ErrNegativeCount
	}
	if n.Cmp(countLimit) >= 0 {
		return ErrCountTooLarge
	}
	return nil
}

// CountKey é a forma canônica (decimal, sem zeros à esquerda) usada como
// chave do cache de imagens por contagem.
func CountKey(n *big.Int) string {
	return n.Text(10)
}
