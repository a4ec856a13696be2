package pathfind

import "github.com/annel0/rts-pathing/internal/config"

// Settings - настраиваемые параметры поиска.
// Searcher копирует их в начале каждого поиска, поэтому изменение
// влияет только на следующие поиски.
type Settings struct {
	// Надбавка за проход через клетку, занятую стоящим объектом
	FixedUnitCrossingCost int
	// Надбавка за проход через клетку, занятую движущимся объектом
	MovingUnitCrossingCost int
	// Если false, неразведанные клетки считаются проходимыми с надбавкой UnknownTerrainCost
	AssumeUnseenKnown  bool
	UnknownTerrainCost int
	// Разрешить диагональный шаг между двумя заблокированными ортогональными соседями
	AllowCornerCutting bool
	// Граница стоимости пути, после которой поиск сдаётся
	MaxSearchLength int
	// Граница числа раскрытых узлов, 0 - без ограничения
	MaxExpansions int
}

// DefaultSettings возвращает значения по умолчанию
func DefaultSettings() Settings {
	return SettingsFromConfig(config.Default().Pathfinding)
}

// SettingsFromConfig переносит секцию pathfinding конфигурации в Settings
func SettingsFromConfig(cfg config.PathfindingConfig) Settings {
	return Settings{
		FixedUnitCrossingCost:  cfg.FixedUnitCrossingCost,
		MovingUnitCrossingCost: cfg.MovingUnitCrossingCost,
		AssumeUnseenKnown:      cfg.AssumeUnseenKnown,
		UnknownTerrainCost:     cfg.UnknownTerrainCost,
		AllowCornerCutting:     cfg.AllowCornerCutting,
		MaxSearchLength:        cfg.MaxSearchLength,
		MaxExpansions:          cfg.MaxExpansions,
	}
}
