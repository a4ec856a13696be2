package movement

import (
	"errors"
	"fmt"

	"github.com/annel0/rts-pathing/internal/pathfind"
	"github.com/annel0/rts-pathing/internal/vec"
	"github.com/annel0/rts-pathing/internal/world"
	"google.golang.org/protobuf/encoding/protowire"
)

// ErrCorruptRecord возвращается при разборе повреждённой записи сохранения
var ErrCorruptRecord = errors.New("movement: повреждённая запись")

// Записи кодируются в формате protobuf без сгенерированного кода.
// Все поля пишутся всегда, даже нулевые, поэтому повторное кодирование
// разобранной записи даёт те же байты.
const (
	reqUnit protowire.Number = iota + 1
	reqSizeW
	reqSizeH
	reqGoalX
	reqGoalY
	reqGoalW
	reqGoalH
	reqLayer
	reqMinRange
	reqMaxRange
	reqRecalculate
	reqExpectedX
	reqExpectedY
	reqHasExpected
	reqUnreachable
	reqUnreachableVersion
)

const (
	resSteps protowire.Number = iota + 1
	resHead
	resLength
	resCycles
	resFast
	resOutcome
)

const (
	stateRequest protowire.Number = iota + 1
	stateResult
)

func appendUint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendInt(b []byte, num protowire.Number, v int) []byte {
	return appendUint(b, num, protowire.EncodeZigZag(int64(v)))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	return appendUint(b, num, protowire.EncodeBool(v))
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// fieldFunc обрабатывает одно поле записи
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

// walkFields разбирает запись, неизвестные поля пропускаются
func walkFields(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrCorruptRecord, protowire.ParseError(n))
		}
		b = b[n:]

		n, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if n == 0 {
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("%w: поле %d: %v", ErrCorruptRecord, num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}

func consumeVarint(num protowire.Number, typ protowire.Type, b []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, fmt.Errorf("%w: поле %d: неожиданный тип %d", ErrCorruptRecord, num, typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, fmt.Errorf("%w: поле %d: %v", ErrCorruptRecord, num, protowire.ParseError(n))
	}
	return v, n, nil
}

func consumeBytes(num protowire.Number, typ protowire.Type, b []byte) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("%w: поле %d: неожиданный тип %d", ErrCorruptRecord, num, typ)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, fmt.Errorf("%w: поле %d: %v", ErrCorruptRecord, num, protowire.ParseError(n))
	}
	return v, n, nil
}

func zigzag(v uint64) int {
	return int(protowire.DecodeZigZag(v))
}

// MarshalBinary кодирует запрос
func (r *Request) MarshalBinary() ([]byte, error) {
	return r.appendTo(make([]byte, 0, 64)), nil
}

func (r *Request) appendTo(b []byte) []byte {
	b = appendUint(b, reqUnit, r.Unit)
	b = appendInt(b, reqSizeW, r.Size.Width)
	b = appendInt(b, reqSizeH, r.Size.Height)
	b = appendInt(b, reqGoalX, r.Goal.X)
	b = appendInt(b, reqGoalY, r.Goal.Y)
	b = appendInt(b, reqGoalW, r.GoalSize.Width)
	b = appendInt(b, reqGoalH, r.GoalSize.Height)
	b = appendUint(b, reqLayer, uint64(r.Layer))
	b = appendInt(b, reqMinRange, r.MinRange)
	b = appendInt(b, reqMaxRange, r.MaxRange)
	b = appendBool(b, reqRecalculate, r.Recalculate)
	b = appendInt(b, reqExpectedX, r.Expected.X)
	b = appendInt(b, reqExpectedY, r.Expected.Y)
	b = appendBool(b, reqHasExpected, r.HasExpected)
	b = appendBool(b, reqUnreachable, r.Unreachable)
	b = appendUint(b, reqUnreachableVersion, r.UnreachableVersion)
	return b
}

// UnmarshalBinary разбирает запрос
func (r *Request) UnmarshalBinary(data []byte) error {
	var out Request
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num < reqUnit || num > reqUnreachableVersion {
			return 0, nil
		}
		v, n, err := consumeVarint(num, typ, b)
		if err != nil {
			return 0, err
		}
		switch num {
		case reqUnit:
			out.Unit = v
		case reqSizeW:
			out.Size.Width = zigzag(v)
		case reqSizeH:
			out.Size.Height = zigzag(v)
		case reqGoalX:
			out.Goal.X = zigzag(v)
		case reqGoalY:
			out.Goal.Y = zigzag(v)
		case reqGoalW:
			out.GoalSize.Width = zigzag(v)
		case reqGoalH:
			out.GoalSize.Height = zigzag(v)
		case reqLayer:
			if v >= uint64(world.MaxLayers) {
				return 0, fmt.Errorf("%w: слой %d", ErrCorruptRecord, v)
			}
			out.Layer = world.LayerID(v)
		case reqMinRange:
			out.MinRange = zigzag(v)
		case reqMaxRange:
			out.MaxRange = zigzag(v)
		case reqRecalculate:
			out.Recalculate = protowire.DecodeBool(v)
		case reqExpectedX:
			out.Expected.X = zigzag(v)
		case reqExpectedY:
			out.Expected.Y = zigzag(v)
		case reqHasExpected:
			out.HasExpected = protowire.DecodeBool(v)
		case reqUnreachable:
			out.Unreachable = protowire.DecodeBool(v)
		case reqUnreachableVersion:
			out.UnreachableVersion = v
		}
		return n, nil
	})
	if err != nil {
		return err
	}
	*r = out
	return nil
}

// MarshalBinary кодирует маршрут вместе со всем буфером шагов
func (r *Result) MarshalBinary() ([]byte, error) {
	return r.appendTo(make([]byte, 0, 48)), nil
}

func (r *Result) appendTo(b []byte) []byte {
	var steps [pathfind.MaxPathSteps]byte
	for i, d := range r.steps {
		steps[i] = byte(d + 1)
	}
	b = appendBytes(b, resSteps, steps[:])
	b = appendUint(b, resHead, uint64(r.head))
	b = appendUint(b, resLength, uint64(r.length))
	b = appendInt(b, resCycles, r.Cycles)
	b = appendBool(b, resFast, r.Fast)
	b = appendUint(b, resOutcome, uint64(r.Outcome))
	return b
}

// UnmarshalBinary разбирает маршрут
func (r *Result) UnmarshalBinary(data []byte) error {
	var out Result
	var head, length uint64
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == resSteps {
			steps, n, err := consumeBytes(num, typ, b)
			if err != nil {
				return 0, err
			}
			if len(steps) != pathfind.MaxPathSteps {
				return 0, fmt.Errorf("%w: буфер шагов длиной %d", ErrCorruptRecord, len(steps))
			}
			for i, s := range steps {
				d := vec.Direction(int8(s) - 1)
				if d != vec.DirNone && !d.Valid() {
					return 0, fmt.Errorf("%w: шаг %d: значение %d", ErrCorruptRecord, i, s)
				}
				out.steps[i] = d
			}
			return n, nil
		}
		if num < resHead || num > resOutcome {
			return 0, nil
		}

		v, n, err := consumeVarint(num, typ, b)
		if err != nil {
			return 0, err
		}
		switch num {
		case resHead:
			head = v
		case resLength:
			length = v
		case resCycles:
			out.Cycles = zigzag(v)
		case resFast:
			out.Fast = protowire.DecodeBool(v)
		case resOutcome:
			if v > uint64(pathfind.OutcomeMoved) {
				return 0, fmt.Errorf("%w: итог %d", ErrCorruptRecord, v)
			}
			out.Outcome = pathfind.Outcome(v)
		}
		return n, nil
	})
	if err != nil {
		return err
	}
	if length > pathfind.MaxPathSteps || head > length {
		return fmt.Errorf("%w: позиция %d, длина %d", ErrCorruptRecord, head, length)
	}
	out.head = uint8(head)
	out.length = uint8(length)
	*r = out
	return nil
}

// State - сохраняемое состояние движения одного объекта
type State struct {
	Request Request
	Result  Result
}

// MarshalBinary кодирует запрос и маршрут одной записью
func (s *State) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, 128)
	b = appendBytes(b, stateRequest, s.Request.appendTo(nil))
	b = appendBytes(b, stateResult, s.Result.appendTo(nil))
	return b, nil
}

// UnmarshalBinary разбирает запись состояния
func (s *State) UnmarshalBinary(data []byte) error {
	var out State
	var seenRequest, seenResult bool
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case stateRequest:
			v, n, err := consumeBytes(num, typ, b)
			if err != nil {
				return 0, err
			}
			seenRequest = true
			return n, out.Request.UnmarshalBinary(v)
		case stateResult:
			v, n, err := consumeBytes(num, typ, b)
			if err != nil {
				return 0, err
			}
			seenResult = true
			return n, out.Result.UnmarshalBinary(v)
		}
		return 0, nil
	})
	if err != nil {
		return err
	}
	if !seenRequest || !seenResult {
		return fmt.Errorf("%w: нет запроса или маршрута", ErrCorruptRecord)
	}
	*s = out
	return nil
}
