package infra

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"sync"

	"github.com/bitmark-inc/logger"
	"github.com/syndtr/goleveldb/leveldb"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"neko-counter/counter/domain"
)

// versão do layout do banco
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

const currentCountDBVersion = 0x100

// prefixo das chaves de contador: "C" + nome da fonte
const countPrefix = 'C'

// LevelDBStore guarda um contador decimal por fonte no LevelDB.
//
// Add faz leitura + escrita sob um mutex, então incrementos concorrentes
// da mesma fonte nunca se perdem.
type LevelDBStore struct {
	mu  sync.Mutex
	db  *leveldb.DB
	log *logger.L
}

var _ domain.CounterStore = (*LevelDBStore)(nil)

// OpenLevelDBStore abre (ou cria) o banco em path.
func OpenLevelDBStore(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	s, err := NewLevelDBStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewLevelDBStore usa um banco já aberto; marca a versão num banco vazio
// e recusa bancos de uma versão mais nova.
func NewLevelDBStore(db *leveldb.DB) (*LevelDBStore, error) {
	s := &LevelDBStore{
		db:  db,
		log: logger.New("store"),
	}

	version, err := s.version()
	if err != nil {
		return nil, err
	}
	switch {
	case version == 0:
		if err := db.Put(versionKey, []byte(strconv.Itoa(currentCountDBVersion)), nil); err != nil {
			return nil, err
		}
	case version > currentCountDBVersion:
		s.log.Criticalf("count database version: %d > current version: %d", version, currentCountDBVersion)
		return nil, fmt.Errorf("count database version: %d > current version: %d", version, currentCountDBVersion)
	}
	return s, nil
}

func (s *LevelDBStore) version() (int, error) {
	value, err := s.db.Get(versionKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(value))
}

func countKey(source string) []byte {
	return append([]byte{countPrefix}, source...)
}

func decodeCount(value []byte) (*big.Int, error) {
	n, ok := new(big.Int).SetString(string(value), 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("corrupt counter value %q", value)
	}
	return n, nil
}

func (s *LevelDBStore) Ensure(_ context.Context, sources []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := new(leveldb.Batch)
	for _, name := range sources {
		ok, err := s.db.Has(countKey(name), nil)
		if err != nil {
			return err
		}
		if !ok {
			s.log.Infof("adding source: %s", name)
			batch.Put(countKey(name), []byte("0"))
		}
	}
	if batch.Len() == 0 {
		return nil
	}
	return s.db.Write(batch, nil)
}

func (s *LevelDBStore) Add(_ context.Context, source string, n uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := countKey(source)
	value, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return domain.ErrUnknownSource
	}
	if err != nil {
		return err
	}

	count, err := decodeCount(value)
	if err != nil {
		return err
	}
	count.Add(count, big.NewInt(int64(n)))
	return s.db.Put(key, []byte(count.Text(10)), nil)
}

func (s *LevelDBStore) Sum(_ context.Context) (*big.Int, error) {
	sum := new(big.Int)
	err := s.scan(func(_ string, n *big.Int) {
		sum.Add(sum, n)
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}

func (s *LevelDBStore) Sources(_ context.Context) ([]string, error) {
	var out []string
	err := s.scan(func(name string, _ *big.Int) {
		out = append(out, name)
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func (s *LevelDBStore) scan(visit func(name string, n *big.Int)) error {
	iter := s.db.NewIterator(ldb_util.BytesPrefix([]byte{countPrefix}), nil)
	defer iter.Release()

	for iter.Next() {
		n, err := decodeCount(iter.Value())
		if err != nil {
			return fmt.Errorf("source %q: %w", iter.Key()[1:], err)
		}
		visit(string(iter.Key()[1:]), n)
	}
	return iter.Error()
}

func (s *LevelDBStore) Close() error {
	return s.db.Close()
}
