// Package application contém os casos de uso do contador de imagens:
// composição das imagens, o cache de imagens, a atualização periódica da
// imagem total e as decisões de admissão de requests.
//
// Depende apenas do pacote domain (e do logger) e não conhece net/http.
package application
