package eventbus

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrBusClosed возвращается при обращении к закрытой шине
var ErrBusClosed = errors.New("eventbus: шина закрыта")

// Типы событий навигационного сервиса
const (
	TypeTerrainChanged = "TerrainChanged"
	TypeUnitOrdered    = "UnitOrdered"
	TypeTickCompleted  = "TickCompleted"
	TypeSaveCreated    = "SaveCreated"
	TypeSaveLoaded     = "SaveLoaded"
)

// PayloadVersion - текущая схема полезной нагрузки
const PayloadVersion = 1

// TerrainChanged - изменилась проходимость области слоя
type TerrainChanged struct {
	Kind     string `json:"kind"`
	Layer    uint8  `json:"layer"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	OldFlags uint64 `json:"old_flags"`
	NewFlags uint64 `json:"new_flags"`
	Version  uint64 `json:"version"`
}

// UnitOrdered - объекту задана новая цель
type UnitOrdered struct {
	Unit     uint64 `json:"unit"`
	Layer    uint8  `json:"layer"`
	GoalX    int    `json:"goal_x"`
	GoalY    int    `json:"goal_y"`
	MinRange int    `json:"min_range"`
	MaxRange int    `json:"max_range"`
}

// TickCompleted - итоги одного цикла движения
type TickCompleted struct {
	Tick        uint64 `json:"tick"`
	Moved       int    `json:"moved"`
	Waiting     int    `json:"waiting"`
	Reached     int    `json:"reached"`
	Unreachable int    `json:"unreachable"`
	Failed      int    `json:"failed"`
}

// SaveEvent - сохранение создано или загружено
type SaveEvent struct {
	SaveID string `json:"save_id"`
	Units  int    `json:"units"`
}

// NewEnvelope упаковывает полезную нагрузку в конверт
func NewEnvelope(source, eventType string, priority int, payload interface{}) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("сериализация %s: %w", eventType, err)
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Version:   PayloadVersion,
		Priority:  priority,
		Payload:   data,
	}, nil
}

// Decode разбирает полезную нагрузку конверта в out
func (e *Envelope) Decode(out interface{}) error {
	if err := json.Unmarshal(e.Payload, out); err != nil {
		return fmt.Errorf("разбор %s: %w", e.EventType, err)
	}
	return nil
}
