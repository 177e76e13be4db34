package heapfile

import (
	"errors"
	"fmt"
	"heapstore/record"
	"math"
	"strconv"
)

var ErrInvalidField = errors.New("invalid field name")
var ErrInvalidFilterValue = errors.New("invalid filter value")

// Field names a record field a scan can filter on.
type Field int

const (
	FieldID Field = iota + 1
	FieldName
	FieldSurname
	FieldCity
)

var fieldNames = map[string]Field{
	"id":      FieldID,
	"name":    FieldName,
	"surname": FieldSurname,
	"city":    FieldCity,
}

func ParseField(name string) (Field, error) {
	if f, ok := fieldNames[name]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidField, name)
}

func (f Field) String() string {
	for name, field := range fieldNames {
		if field == f {
			return name
		}
	}
	return "Field(" + strconv.Itoa(int(f)) + ")"
}

// Filter selects the records whose field equals a value. A nil *Filter selects every record.
type Filter struct {
	field Field
	id    int32
	text  string
}

// NewFilter builds an equality filter on the field called fieldName. The id field takes an int, int32, int64 or a
// decimal string, text fields take a string.
func NewFilter(fieldName string, value any) (*Filter, error) {
	field, err := ParseField(fieldName)
	if err != nil {
		return nil, err
	}

	if field != FieldID {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s takes a string, got %T", ErrInvalidFilterValue, field, value)
		}
		return &Filter{field: field, text: s}, nil
	}

	var id int64
	switch v := value.(type) {
	case int32:
		id = int64(v)
	case int:
		id = int64(v)
	case int64:
		id = v
	case string:
		if id, err = strconv.ParseInt(v, 10, 32); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFilterValue, err)
		}
	default:
		return nil, fmt.Errorf("%w: id takes an integer, got %T", ErrInvalidFilterValue, value)
	}

	if id < math.MinInt32 || id > math.MaxInt32 {
		return nil, fmt.Errorf("%w: id %d does not fit in 32 bits", ErrInvalidFilterValue, id)
	}
	return &Filter{field: FieldID, id: int32(id)}, nil
}

func (f *Filter) Field() Field {
	return f.field
}

func (f *Filter) Match(r record.Record) bool {
	if f == nil {
		return true
	}

	switch f.field {
	case FieldID:
		return r.ID == f.id
	case FieldName:
		return r.Name == f.text
	case FieldSurname:
		return r.Surname == f.text
	case FieldCity:
		return r.City == f.text
	}
	return false
}
