package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/rts-pathing/internal/traverse"
	"github.com/annel0/rts-pathing/internal/vec"
	"github.com/annel0/rts-pathing/internal/world"
	"google.golang.org/protobuf/encoding/protowire"
)

// ErrCorruptSummary возвращается при разборе повреждённой записи кеша
var ErrCorruptSummary = errors.New("cache: повреждённая сводка областей")

// RegionSummary - сводка разметки слоя на связные области
type RegionSummary struct {
	Count int
	Sizes []int // Sizes[i] - число клеток области i+1
}

// RegionCache хранит сводки областей по версии связности слоя.
// Версия входит в ключ, поэтому изменение ландшафта само делает старые записи недостижимыми.
type RegionCache struct {
	repo     CacheRepo
	instance string
	ttl      time.Duration
}

// NewRegionCache создаёт кеш сводок. instance отделяет записи разных запусков:
// после перезапуска версии слоёв начинаются заново.
func NewRegionCache(repo CacheRepo, instance string, ttl time.Duration) *RegionCache {
	return &RegionCache{repo: repo, instance: instance, ttl: ttl}
}

func (rc *RegionCache) key(layer world.LayerID, version uint64, mask world.TileFlag) string {
	return fmt.Sprintf("regions:%s:%d:%d:%x", rc.instance, layer, version, uint64(mask))
}

// Get возвращает сводку или ErrCacheMiss
func (rc *RegionCache) Get(ctx context.Context, layer world.LayerID, version uint64, mask world.TileFlag) (RegionSummary, error) {
	data, err := rc.repo.Get(ctx, rc.key(layer, version, mask))
	if err != nil {
		return RegionSummary{}, err
	}
	return decodeSummary(data)
}

// Put сохраняет сводку
func (rc *RegionCache) Put(ctx context.Context, layer world.LayerID, version uint64, mask world.TileFlag, s RegionSummary) error {
	return rc.repo.Set(ctx, rc.key(layer, version, mask), encodeSummary(s), rc.ttl)
}

// Metrics возвращает счётчики нижележащего хранилища
func (rc *RegionCache) Metrics() CacheMetrics {
	return rc.repo.GetMetrics()
}

// Поля записи: 1 - число областей, 2 - упакованные размеры
const (
	summaryCount protowire.Number = 1
	summarySizes protowire.Number = 2
)

func encodeSummary(s RegionSummary) []byte {
	var b []byte
	b = protowire.AppendTag(b, summaryCount, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(s.Count))

	var packed []byte
	for _, size := range s.Sizes {
		packed = protowire.AppendVarint(packed, uint64(size))
	}
	b = protowire.AppendTag(b, summarySizes, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

func decodeSummary(b []byte) (RegionSummary, error) {
	var s RegionSummary
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return RegionSummary{}, ErrCorruptSummary
		}
		b = b[n:]

		switch {
		case num == summaryCount && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return RegionSummary{}, ErrCorruptSummary
			}
			s.Count = int(v)
			b = b[n:]
		case num == summarySizes && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return RegionSummary{}, ErrCorruptSummary
			}
			for len(packed) > 0 {
				v, m := protowire.ConsumeVarint(packed)
				if m < 0 {
					return RegionSummary{}, ErrCorruptSummary
				}
				s.Sizes = append(s.Sizes, int(v))
				packed = packed[m:]
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return RegionSummary{}, ErrCorruptSummary
			}
			b = b[n:]
		}
	}
	if len(s.Sizes) != s.Count {
		return RegionSummary{}, ErrCorruptSummary
	}
	return s, nil
}

// Summarize считает сводку по разметке
func Summarize(m *traverse.RegionMap) RegionSummary {
	s := RegionSummary{Count: m.Count, Sizes: make([]int, m.Count)}
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if r := m.Region(vec.Vec2{X: x, Y: y}); r > 0 {
				s.Sizes[r-1]++
			}
		}
	}
	return s
}
