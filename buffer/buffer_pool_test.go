package buffer

import (
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"heapstore/disk"
	"io"
	"log"
	"math/rand"
	"path/filepath"
	"testing"
)

func openTestFile(t *testing.T) *disk.Manager {
	log.SetOutput(io.Discard)

	path := filepath.Join(t.TempDir(), uuid.New().String())
	require.NoError(t, disk.CreateFile(path))

	dm, err := disk.NewDiskManager(path)
	require.NoError(t, err)
	t.Cleanup(func() { dm.Close() })
	return dm
}

func TestBuffer_Pool_Should_Not_Corrupt_Pages(t *testing.T) {
	for _, name := range replacerNames {
		t.Run(name, func(t *testing.T) {
			dm := openTestFile(t)
			r, err := NewReplacer(name, 2)
			require.NoError(t, err)
			b := NewBufferPool(2, r)
			b.RegisterFile(1, dm)

			numPagesToTest := 50

			randomPages := make([][]byte, 0)
			for i := 0; i < numPagesToTest; i++ {
				randomPage := make([]byte, disk.PageSize)
				rand.Read(randomPage)
				randomPages = append(randomPages, randomPage)
			}

			// write random pages with 2 sized buffer pool
			pageIDs := make([]int, 0)
			for i := 0; i < numPagesToTest; i++ {
				p, err := b.NewPage(1)
				require.NoError(t, err)
				pageIDs = append(pageIDs, p.GetPageId())

				n := copy(p.GetData(), randomPages[i])
				require.Equal(t, n, len(randomPages[i]))

				require.NoError(t, b.Unpin(1, p.GetPageId(), true))
			}
			assert.Equal(t, numPagesToTest, dm.NumPages())

			// read each page and validate content
			for i := 0; i < numPagesToTest; i++ {
				p, err := b.GetPage(1, pageIDs[i])
				require.NoError(t, err)

				assert.Equal(t, randomPages[i], p.GetData())
				require.NoError(t, b.Unpin(1, p.GetPageId(), false))
			}
		})
	}
}

func TestBuffer_Pool_Should_Return_Error_When_Every_Frame_Is_Pinned(t *testing.T) {
	dm := openTestFile(t)
	b := NewBufferPool(2, nil)
	b.RegisterFile(1, dm)

	for i := 0; i < 2; i++ {
		_, err := b.NewPage(1)
		require.NoError(t, err)
	}

	_, err := b.NewPage(1)
	assert.ErrorIs(t, err, ErrNoFreeFrame)

	// failed allocation must not reserve a page id
	assert.Equal(t, 2, dm.NumPages())
}

func TestBuffer_Pool_Should_Keep_Page_Pinned_Until_Every_Pin_Is_Released(t *testing.T) {
	dm := openTestFile(t)
	b := NewBufferPool(4, nil)
	b.RegisterFile(1, dm)

	p, err := b.NewPage(1)
	require.NoError(t, err)
	require.NoError(t, b.Unpin(1, p.GetPageId(), true))

	p1, err := b.GetPage(1, p.GetPageId())
	require.NoError(t, err)
	p2, err := b.GetPage(1, p.GetPageId())
	require.NoError(t, err)
	assert.Same(t, p1, p2)
	assert.Equal(t, 2, p1.GetPinCount())
	assert.Equal(t, 1, b.PinnedPages(1))

	require.NoError(t, b.Unpin(1, p.GetPageId(), false))
	require.NoError(t, b.Unpin(1, p.GetPageId(), false))
	assert.Equal(t, 0, b.PinnedPages(1))
	assert.ErrorIs(t, b.Unpin(1, p.GetPageId(), false), ErrNotPinned)
}

func TestBuffer_Pool_Unpin_Should_Fail_For_Unknown_Page(t *testing.T) {
	dm := openTestFile(t)
	b := NewBufferPool(4, nil)
	b.RegisterFile(1, dm)

	assert.ErrorIs(t, b.Unpin(1, 7, false), ErrPageNotFoundInPageMap)
}

func TestBuffer_Pool_GetPage_Should_Fail_Out_Of_Range(t *testing.T) {
	dm := openTestFile(t)
	b := NewBufferPool(4, nil)
	b.RegisterFile(1, dm)

	_, err := b.GetPage(1, 0)
	assert.ErrorIs(t, err, disk.ErrPageOutOfRange)
	assert.Equal(t, 4, b.EmptyFrameSize())

	_, err = b.GetPage(2, 0)
	assert.ErrorIs(t, err, ErrUnknownFile)
}

func TestBuffer_Pool_DropFile_Should_Flush_And_Release_Frames(t *testing.T) {
	dm := openTestFile(t)
	b := NewBufferPool(4, nil)
	b.RegisterFile(1, dm)

	p, err := b.NewPage(1)
	require.NoError(t, err)
	p.GetData()[0] = 'x'

	assert.ErrorIs(t, b.DropFile(1), ErrPagePinned)

	require.NoError(t, b.Unpin(1, p.GetPageId(), true))
	require.NoError(t, b.DropFile(1))
	assert.Equal(t, 4, b.EmptyFrameSize())

	data := make([]byte, disk.PageSize)
	require.NoError(t, dm.ReadPage(0, data))
	assert.Equal(t, byte('x'), data[0])
}

func TestBuffer_Pool_Should_Serve_Several_Files(t *testing.T) {
	dm1, dm2 := openTestFile(t), openTestFile(t)
	b := NewBufferPool(1, NewLruReplacer(1))
	b.RegisterFile(1, dm1)
	b.RegisterFile(2, dm2)

	p, err := b.NewPage(1)
	require.NoError(t, err)
	p.GetData()[0] = 1
	require.NoError(t, b.Unpin(1, 0, true))

	p, err = b.NewPage(2)
	require.NoError(t, err)
	p.GetData()[0] = 2
	require.NoError(t, b.Unpin(2, 0, true))

	p, err = b.GetPage(1, 0)
	require.NoError(t, err)
	assert.Equal(t, byte(1), p.GetData()[0])
	require.NoError(t, b.Unpin(1, 0, false))

	require.NoError(t, b.FlushAll())
	data := make([]byte, disk.PageSize)
	require.NoError(t, dm2.ReadPage(0, data))
	assert.Equal(t, byte(2), data[0])
}

func TestBuffer_Pool_Should_Count_Hits_Misses_And_Evictions(t *testing.T) {
	dm := openTestFile(t)
	b := NewBufferPool(1, nil)
	b.RegisterFile(1, dm)

	p0, err := b.NewPage(1)
	require.NoError(t, err)
	require.NoError(t, b.Unpin(1, p0.GetPageId(), true))

	// evicts dirty page 0
	p1, err := b.NewPage(1)
	require.NoError(t, err)
	require.NoError(t, b.Unpin(1, p1.GetPageId(), false))

	_, err = b.GetPage(1, p1.GetPageId())
	require.NoError(t, err)
	require.NoError(t, b.Unpin(1, p1.GetPageId(), false))

	// evicts page 1 which is still dirty since it was never written
	_, err = b.GetPage(1, p0.GetPageId())
	require.NoError(t, err)
	require.NoError(t, b.Unpin(1, p0.GetPageId(), false))

	assert.EqualValues(t, 1, b.Stats.Get(StatHit))
	assert.EqualValues(t, 1, b.Stats.Get(StatMiss))
	assert.EqualValues(t, 2, b.Stats.Get(StatEviction))
	assert.EqualValues(t, 2, b.Stats.Get(StatWriteBack))
}
