package common

const (
	// BlockSize is the size of every block in every file managed by the block layer. Records are packed into
	// blocks of this size, so changing it changes the on-disk format.
	BlockSize = 512

	// DefaultPoolSize is the number of frames a buffer pool keeps when no size is configured.
	DefaultPoolSize = 100

	// MaxOpenFiles bounds the number of descriptors a block file manager hands out at once.
	MaxOpenFiles = 100
)
