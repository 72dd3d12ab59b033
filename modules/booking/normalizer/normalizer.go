package normalizer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"booking-insights/core/errors"
	"booking-insights/modules/booking/dto"
)

// shape recognizes one upstream envelope. ok is false when the payload is not
// that envelope; err is set when it is, but the bookings cannot be decoded.
type shape struct {
	name  string
	match func(payload []byte) (res *dto.NormalizedResponse, ok bool, err error)
}

// Order matters: the first matching shape wins. The paginated
// {status, data, pagination, error} envelope is handled by dataEnvelope;
// its pagination block is ignored.
var shapes = []shape{
	{name: "array", match: bareArray},
	{name: "data", match: dataEnvelope},
	{name: "bookings", match: bookingsEnvelope},
}

// Normalize reduces a bookings payload to items, total and cursors. Payloads
// matching no known envelope fail with SHAPE_ERROR.
func Normalize(payload []byte) (*dto.NormalizedResponse, *errors.AppError) {
	trimmed := bytes.TrimSpace(payload)
	for _, s := range shapes {
		res, ok, err := s.match(trimmed)
		if !ok {
			continue
		}
		if err != nil {
			return nil, errors.NewAppError(errors.ErrShape, fmt.Sprintf("bookings payload has %s shape but could not be decoded", s.name), err)
		}
		res.Raw = json.RawMessage(payload)
		return res, nil
	}
	return nil, errors.NewAppError(errors.ErrShape, "unrecognized bookings payload shape", nil)
}

func bareArray(payload []byte) (*dto.NormalizedResponse, bool, error) {
	if len(payload) == 0 || payload[0] != '[' {
		return nil, false, nil
	}
	items, ok, err := bookingsArray(payload)
	if !ok {
		return nil, false, nil
	}
	return &dto.NormalizedResponse{Items: items}, true, err
}

type dataShape struct {
	Data       json.RawMessage `json:"data"`
	TotalCount json.RawMessage `json:"totalCount"`
	Count      json.RawMessage `json:"count"`
	NextCursor json.RawMessage `json:"nextCursor"`
	PrevCursor json.RawMessage `json:"prevCursor"`
}

func dataEnvelope(payload []byte) (*dto.NormalizedResponse, bool, error) {
	if len(payload) == 0 || payload[0] != '{' {
		return nil, false, nil
	}
	var env dataShape
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, false, nil
	}
	items, ok, err := bookingsArray(env.Data)
	if !ok {
		return nil, false, nil
	}
	return &dto.NormalizedResponse{
		Items:      items,
		TotalCount: firstCount(env.TotalCount, env.Count),
		NextCursor: cursor(env.NextCursor),
		PrevCursor: cursor(env.PrevCursor),
	}, true, err
}

type bookingsShape struct {
	Bookings json.RawMessage `json:"bookings"`
	Meta     *struct {
		Total      json.RawMessage `json:"total"`
		Count      json.RawMessage `json:"count"`
		NextCursor json.RawMessage `json:"nextCursor"`
		PrevCursor json.RawMessage `json:"prevCursor"`
	} `json:"meta"`
}

func bookingsEnvelope(payload []byte) (*dto.NormalizedResponse, bool, error) {
	if len(payload) == 0 || payload[0] != '{' {
		return nil, false, nil
	}
	var env bookingsShape
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, false, nil
	}
	items, ok, err := bookingsArray(env.Bookings)
	if !ok {
		return nil, false, nil
	}
	res := &dto.NormalizedResponse{Items: items}
	if env.Meta != nil {
		res.TotalCount = firstCount(env.Meta.Total, env.Meta.Count)
		res.NextCursor = cursor(env.Meta.NextCursor)
		res.PrevCursor = cursor(env.Meta.PrevCursor)
	}
	return res, true, err
}

// bookingsArray reports whether raw is an array whose every element is an
// object with a numeric id, and decodes it if so. Items is never nil on ok.
func bookingsArray(raw json.RawMessage) ([]dto.RawBooking, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, false, nil
	}
	for _, elem := range elems {
		if !hasNumericID(elem) {
			return nil, false, nil
		}
	}

	items := make([]dto.RawBooking, 0, len(elems))
	for i, elem := range elems {
		var b dto.RawBooking
		if err := json.Unmarshal(elem, &b); err != nil {
			return []dto.RawBooking{}, true, fmt.Errorf("booking %d: %w", i, err)
		}
		items = append(items, b)
	}
	return items, true, nil
}

func hasNumericID(elem json.RawMessage) bool {
	elem = bytes.TrimSpace(elem)
	if len(elem) == 0 || elem[0] != '{' {
		return false
	}
	var obj struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(elem, &obj); err != nil || len(obj.ID) == 0 {
		return false
	}
	return isNumberLiteral(obj.ID)
}

func isNumberLiteral(raw json.RawMessage) bool {
	c := bytes.TrimSpace(raw)
	return len(c) > 0 && (c[0] == '-' || (c[0] >= '0' && c[0] <= '9'))
}

// firstCount returns the first value that is a JSON number.
func firstCount(candidates ...json.RawMessage) *int {
	for _, raw := range candidates {
		if !isNumberLiteral(raw) {
			continue
		}
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			continue
		}
		n := int(f)
		return &n
	}
	return nil
}

// cursor decodes an opaque cursor. Absent and null both become nil.
func cursor(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
