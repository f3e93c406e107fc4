// Package domain define os tipos e contratos do contador de imagens.
//
// Este pacote não depende de net/http, de bancos de dados nem do logger.
// Aqui ficam os glifos, os templates, a imagem renderizada, as regras
// sazonais e as interfaces das fontes de contagem e da admissão de requests.
package domain
