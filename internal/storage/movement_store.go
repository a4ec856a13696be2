package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/annel0/rts-pathing/internal/config"
	"github.com/annel0/rts-pathing/internal/logging"
	"github.com/annel0/rts-pathing/internal/movement"
	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"google.golang.org/protobuf/encoding/protowire"
)

var (
	// ErrStoreClosed возвращается при обращении к закрытому хранилищу
	ErrStoreClosed = errors.New("storage: хранилище закрыто")
	// ErrSaveNotFound возвращается, если сохранения с таким ID нет
	ErrSaveNotFound = errors.New("storage: сохранение не найдено")
)

// Первый байт значения - способ кодирования
const (
	encodingRaw  byte = 0
	encodingZstd byte = 1
)

// SaveInfo описывает одно сохранение
type SaveInfo struct {
	ID      uuid.UUID
	Units   int
	Created time.Time
}

// MovementStore хранит сохранённые состояния движения в BadgerDB.
// Ключи:
//
//	save:<uuid>:meta               - SaveInfo
//	save:<uuid>:unit:<id 20 цифр>  - movement.State
//
// ID объекта дополнен нулями, поэтому записи читаются в порядке возрастания ID.
type MovementStore struct {
	db       *badger.DB
	dbPath   string
	mutex    sync.RWMutex
	isReady  bool
	compress bool
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
	log      *logging.Logger
}

// NewMovementStore открывает хранилище в каталоге cfg.Path
func NewMovementStore(cfg config.StorageConfig) (*MovementStore, error) {
	dbPath := filepath.Join(cfg.Path, "movement")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd-кодировщик: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd-декодер: %w", err)
	}

	return &MovementStore{
		db:       db,
		dbPath:   dbPath,
		isReady:  true,
		compress: cfg.Compression,
		encoder:  encoder,
		decoder:  decoder,
		log:      logging.Discard(),
	}, nil
}

// SetLogger задаёт логгер компонента
func (s *MovementStore) SetLogger(l *logging.Logger) {
	s.log = l
}

// Close закрывает хранилище
func (s *MovementStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}

	s.isReady = false
	s.encoder.Close()
	s.decoder.Close()
	return s.db.Close()
}

func savePrefix(id uuid.UUID) []byte {
	return []byte("save:" + id.String() + ":")
}

func metaKey(id uuid.UUID) []byte {
	return append(savePrefix(id), "meta"...)
}

func unitPrefix(id uuid.UUID) []byte {
	return append(savePrefix(id), "unit:"...)
}

func unitKey(id uuid.UUID, unit uint64) []byte {
	return append(unitPrefix(id), fmt.Sprintf("%020d", unit)...)
}

func (s *MovementStore) encode(data []byte) []byte {
	if !s.compress {
		return append([]byte{encodingRaw}, data...)
	}
	return s.encoder.EncodeAll(data, []byte{encodingZstd})
}

func (s *MovementStore) decode(val []byte) ([]byte, error) {
	if len(val) == 0 {
		return nil, fmt.Errorf("%w: пустое значение", movement.ErrCorruptRecord)
	}
	switch val[0] {
	case encodingRaw:
		return append([]byte(nil), val[1:]...), nil
	case encodingZstd:
		data, err := s.decoder.DecodeAll(val[1:], nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", movement.ErrCorruptRecord, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: неизвестное кодирование %d", movement.ErrCorruptRecord, val[0])
	}
}

func encodeInfo(info SaveInfo) []byte {
	b := protowire.AppendTag(nil, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(info.Units))
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(info.Created.UnixNano()))
	return b
}

func decodeInfo(id uuid.UUID, b []byte) (SaveInfo, error) {
	info := SaveInfo{ID: id}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 || typ != protowire.VarintType {
			return info, fmt.Errorf("%w: заголовок сохранения %s", movement.ErrCorruptRecord, id)
		}
		b = b[n:]
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return info, fmt.Errorf("%w: заголовок сохранения %s", movement.ErrCorruptRecord, id)
		}
		b = b[n:]
		switch num {
		case 1:
			info.Units = int(v)
		case 2:
			info.Created = time.Unix(0, int64(v))
		}
	}
	return info, nil
}

// Save записывает состояния под новым ID сохранения
func (s *MovementStore) Save(ctx context.Context, states []movement.State) (uuid.UUID, error) {
	id := uuid.New()
	if err := s.SaveAs(ctx, id, states); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// SaveAs записывает состояния под заданным ID, заменяя прежнее содержимое
func (s *MovementStore) SaveAs(ctx context.Context, id uuid.UUID, states []movement.State) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return ErrStoreClosed
	}

	records := make([][]byte, len(states))
	for i := range states {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := states[i].MarshalBinary()
		if err != nil {
			return fmt.Errorf("ошибка сериализации объекта %d: %w", states[i].Request.Unit, err)
		}
		records[i] = s.encode(data)
	}

	info := SaveInfo{ID: id, Units: len(states), Created: time.Now()}
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := deletePrefix(txn, savePrefix(id)); err != nil {
			return err
		}
		for i, rec := range records {
			if err := txn.Set(unitKey(id, states[i].Request.Unit), rec); err != nil {
				return err
			}
		}
		return txn.Set(metaKey(id), s.encode(encodeInfo(info)))
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}

	s.log.Info("Сохранение %s: %d объектов", id, len(states))
	return nil
}

// Load читает состояния сохранения в порядке возрастания ID объектов
func (s *MovementStore) Load(ctx context.Context, id uuid.UUID) ([]movement.State, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return nil, ErrStoreClosed
	}

	var states []movement.State
	err := s.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get(metaKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrSaveNotFound, id)
			}
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = unitPrefix(id)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			err := item.Value(func(val []byte) error {
				data, err := s.decode(val)
				if err != nil {
					return err
				}
				var st movement.State
				if err := st.UnmarshalBinary(data); err != nil {
					return fmt.Errorf("запись %s: %w", item.Key(), err)
				}
				states = append(states, st)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return states, nil
}

// Delete удаляет сохранение
func (s *MovementStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return deletePrefix(txn, savePrefix(id))
	})
}

// List возвращает все сохранения в порядке ключей
func (s *MovementStore) List(ctx context.Context) ([]SaveInfo, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return nil, ErrStoreClosed
	}

	var saves []SaveInfo
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("save:")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := it.Item().Key()
			if !bytes.HasSuffix(key, []byte(":meta")) {
				continue
			}
			id, err := uuid.ParseBytes(bytes.TrimSuffix(bytes.TrimPrefix(key, []byte("save:")), []byte(":meta")))
			if err != nil {
				s.log.Warn("Некорректный ключ сохранения %q: %v", key, err)
				continue
			}
			err = it.Item().Value(func(val []byte) error {
				data, err := s.decode(val)
				if err != nil {
					return err
				}
				info, err := decodeInfo(id, data)
				if err != nil {
					return err
				}
				saves = append(saves, info)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saves, nil
}

// deletePrefix удаляет все ключи с префиксом в рамках транзакции
func deletePrefix(txn *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)

	var keys [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, key := range keys {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
