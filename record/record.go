// Package record defines the fixed size record stored in heap files and the layout of the blocks that hold them.
//
// A record takes Size bytes on disk:
//
//	------------------------------------------------------------------
//	| Id (4) | Name (15) | Surname (20) | City (20) | Padding (1) |
//	------------------------------------------------------------------
//
// Id is a little endian int32. Text fields are NUL terminated and zero padded up to their capacity, so a field
// holds at most capacity-1 bytes.
package record

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
)

const (
	NameCapacity    = 15
	SurnameCapacity = 20
	CityCapacity    = 20

	idOffset      = 0
	nameOffset    = idOffset + 4
	surnameOffset = nameOffset + NameCapacity
	cityOffset    = surnameOffset + SurnameCapacity
	paddingOffset = cityOffset + CityCapacity

	// Size is the on-disk size of a record. Fields take 59 bytes and one byte of padding keeps records 4 byte
	// aligned.
	Size = paddingOffset + 1
)

var ErrFieldTooLong = errors.New("text field is longer than its capacity")
var ErrInvalidText = errors.New("text field contains a NUL byte")

type Record struct {
	ID      int32
	Name    string
	Surname string
	City    string
}

// New returns a record after checking that every text field fits its capacity.
func New(id int32, name, surname, city string) (Record, error) {
	r := Record{ID: id, Name: name, Surname: surname, City: city}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

func (r Record) Validate() error {
	if err := checkText("name", r.Name, NameCapacity); err != nil {
		return err
	}
	if err := checkText("surname", r.Surname, SurnameCapacity); err != nil {
		return err
	}
	return checkText("city", r.City, CityCapacity)
}

// Encode writes the record into dest which must be at least Size bytes long.
func (r Record) Encode(dest []byte) error {
	if len(dest) < Size {
		return fmt.Errorf("record buffer is %d bytes, need %d", len(dest), Size)
	}
	if err := r.Validate(); err != nil {
		return err
	}

	dest = dest[:Size]
	clear(dest)
	binary.LittleEndian.PutUint32(dest[idOffset:], uint32(r.ID))
	copy(dest[nameOffset:surnameOffset], r.Name)
	copy(dest[surnameOffset:cityOffset], r.Surname)
	copy(dest[cityOffset:paddingOffset], r.City)
	return nil
}

// Decode reads a record from the first Size bytes of src.
func Decode(src []byte) (Record, error) {
	if len(src) < Size {
		return Record{}, fmt.Errorf("record buffer is %d bytes, need %d", len(src), Size)
	}

	return Record{
		ID:      int32(binary.LittleEndian.Uint32(src[idOffset:])),
		Name:    readText(src[nameOffset:surnameOffset]),
		Surname: readText(src[surnameOffset:cityOffset]),
		City:    readText(src[cityOffset:paddingOffset]),
	}, nil
}

// AppendLine appends the record in its printed form, `<id>,"<name>","<surname>","<city>"` followed by a new line.
// Text is written as is, quotes inside fields are not escaped.
func (r Record) AppendLine(dst []byte) []byte {
	dst = strconv.AppendInt(dst, int64(r.ID), 10)
	dst = append(dst, ',', '"')
	dst = append(dst, r.Name...)
	dst = append(dst, '"', ',', '"')
	dst = append(dst, r.Surname...)
	dst = append(dst, '"', ',', '"')
	dst = append(dst, r.City...)
	dst = append(dst, '"', '\n')
	return dst
}

func (r Record) String() string {
	line := r.AppendLine(nil)
	return string(line[:len(line)-1])
}

func checkText(field, s string, capacity int) error {
	if len(s) > capacity-1 {
		return fmt.Errorf("%w: %s is %d bytes, at most %d allowed", ErrFieldTooLong, field, len(s), capacity-1)
	}
	if bytes.IndexByte([]byte(s), 0) >= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidText, field)
	}
	return nil
}

// readText returns the bytes up to the first NUL. A field without terminator is read to its end.
func readText(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
