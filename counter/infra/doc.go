// Package infra contém as implementações concretas dos contratos do pacote domain.
//
// Exemplos:
//   - carga dos glifos e templates a partir de um fs.FS (embed ou diretório)
//   - MemoryStore, LevelDBStore e RedisStore: contadores por fonte
//   - LimiterStore: token bucket por cliente (golang.org/x/time/rate) guardado em go-cache
//   - ChanPool: semáforo simples para limitar renders simultâneos
package infra
