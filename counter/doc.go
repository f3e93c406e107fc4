// Package counter expõe o contador de imagens via HTTP (net/http).
//
// Visão geral (camadas):
//
//   - domain: tipos e contratos (imagens, calendário sazonal, erros, stores)
//   - application: composição PNG, cache de imagens, refresh do total, admissão
//   - infra: assets, stores (memória, LevelDB, Redis), token bucket, semáforo
//   - counter (este pacote): rotas, middlewares e tradução para status/headers
//
// Rotas:
//
//	GET  /count_total            imagem do total agregado
//	GET  /count/{count}          imagem de uma contagem qualquer
//	POST /add/{source}/{count}   soma count (0..255) na fonte
//
// O binário cmd/neko-server faz o wiring a partir de flags e variáveis de ambiente.
package counter
