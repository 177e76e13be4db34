package record

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"heapstore/common"
	"strings"
	"testing"
)

func TestRecord_Size_And_Records_Per_Block(t *testing.T) {
	assert.Equal(t, 60, Size)
	assert.Equal(t, 8, RecordsPerBlock)
}

func TestRecord_Encode_Should_Place_Fields_At_Fixed_Offsets(t *testing.T) {
	r, err := New(-2, "Ioanna", "Papadopoulou", "Athens")
	require.NoError(t, err)

	buf := make([]byte, Size)
	for i := range buf {
		buf[i] = 0xff
	}
	require.NoError(t, r.Encode(buf))

	assert.Equal(t, []byte{0xfe, 0xff, 0xff, 0xff}, buf[0:4])
	assert.Equal(t, "Ioanna", string(buf[4:10]))
	assert.Equal(t, byte(0), buf[10])
	assert.Equal(t, "Papadopoulou", string(buf[19:31]))
	assert.Equal(t, "Athens", string(buf[39:45]))
	assert.Equal(t, byte(0), buf[Size-1])

	decoded, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, r, decoded)
}

func TestRecord_Should_Reject_Text_Longer_Than_Capacity(t *testing.T) {
	_, err := New(1, strings.Repeat("a", NameCapacity), "", "")
	assert.ErrorIs(t, err, ErrFieldTooLong)

	_, err = New(1, "", strings.Repeat("a", SurnameCapacity), "")
	assert.ErrorIs(t, err, ErrFieldTooLong)

	_, err = New(1, "", "", strings.Repeat("a", CityCapacity))
	assert.ErrorIs(t, err, ErrFieldTooLong)

	r, err := New(1, strings.Repeat("a", NameCapacity-1), strings.Repeat("b", SurnameCapacity-1), strings.Repeat("c", CityCapacity-1))
	require.NoError(t, err)

	buf := make([]byte, Size)
	require.NoError(t, r.Encode(buf))
	decoded, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, r, decoded)
}

func TestRecord_Should_Reject_Nul_Bytes(t *testing.T) {
	_, err := New(1, "a\x00b", "", "")
	assert.ErrorIs(t, err, ErrInvalidText)
}

func TestRecord_Encode_Should_Fail_On_Short_Buffer(t *testing.T) {
	assert.Error(t, Record{}.Encode(make([]byte, Size-1)))
	_, err := Decode(make([]byte, Size-1))
	assert.Error(t, err)
}

func TestRecord_AppendLine_Should_Not_Escape_Quotes(t *testing.T) {
	r := Record{ID: 7, Name: `Jo"hn`, Surname: "Smith", City: "Rome"}
	assert.Equal(t, "7,\"Jo\"hn\",\"Smith\",\"Rome\"\n", string(r.AppendLine(nil)))
	assert.Equal(t, `7,"Jo"hn","Smith","Rome"`, r.String())
}

func TestDataBlock_Slots(t *testing.T) {
	b := DataBlock(make([]byte, common.BlockSize))
	n, err := b.Count()
	require.NoError(t, err)
	assert.Zero(t, n)

	for i := 0; i < RecordsPerBlock; i++ {
		r := Record{ID: int32(i), Name: "n", Surname: "s", City: "c"}
		buf := make([]byte, Size)
		require.NoError(t, r.Encode(buf))
		require.NoError(t, b.PutRaw(i, buf))
	}
	b.SetCount(RecordsPerBlock)

	n, err = b.Count()
	require.NoError(t, err)
	assert.Equal(t, RecordsPerBlock, n)

	for i := 0; i < RecordsPerBlock; i++ {
		r, err := b.Get(i)
		require.NoError(t, err)
		assert.Equal(t, int32(i), r.ID)
	}

	_, err = b.Get(RecordsPerBlock)
	assert.ErrorIs(t, err, ErrSlotOutOfRange)
	_, err = b.Get(-1)
	assert.ErrorIs(t, err, ErrSlotOutOfRange)

	off, err := SlotOffset(RecordsPerBlock - 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, off+Size, common.BlockSize)
}

func TestDataBlock_Count_Should_Detect_Corrupt_Counter(t *testing.T) {
	b := DataBlock(make([]byte, common.BlockSize))

	b.SetCount(RecordsPerBlock + 1)
	_, err := b.Count()
	assert.ErrorIs(t, err, ErrCorruptBlock)

	b.SetCount(-1)
	_, err = b.Count()
	assert.ErrorIs(t, err, ErrCorruptBlock)
}

func TestFormatTag(t *testing.T) {
	header := make([]byte, common.BlockSize)
	assert.NotEqual(t, HeapFileTag, ReadFormatTag(header))

	WriteFormatTag(header, HeapFileTag)
	assert.Equal(t, HeapFileTag, ReadFormatTag(header))
	assert.Equal(t, byte('h'), header[0])
}
