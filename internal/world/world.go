package world

import (
	"errors"
	"fmt"
)

// ErrUnknownLayer возвращается при обращении к несуществующему слою
var ErrUnknownLayer = errors.New("world: неизвестный слой")

// World - набор независимых слоёв карты. Создаётся при загрузке карты
// и живёт до её выгрузки.
type World struct {
	layers []*Layer
}

// NewWorld создаёт пустой мир
func NewWorld() *World {
	return &World{}
}

// AddLayer создаёт новый слой указанного размера и возвращает его.
// ID слоя совпадает с порядковым номером добавления.
func (w *World) AddLayer(width, height int) (*Layer, error) {
	if len(w.layers) >= int(MaxLayers) {
		return nil, fmt.Errorf("world: превышено число слоёв (%d)", MaxLayers)
	}
	layer := NewLayer(LayerID(len(w.layers)), width, height)
	w.layers = append(w.layers, layer)
	return layer, nil
}

// Layer возвращает слой по ID
func (w *World) Layer(id LayerID) (*Layer, error) {
	if int(id) >= len(w.layers) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLayer, id)
	}
	return w.layers[id], nil
}

// Layers возвращает все слои в порядке ID
func (w *World) Layers() []*Layer {
	return w.layers
}

// LayerCount возвращает количество слоёв
func (w *World) LayerCount() int {
	return len(w.layers)
}
