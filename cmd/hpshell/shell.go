package main

import (
	"errors"
	"fmt"
	"heapstore/blockfile"
	"heapstore/buffer"
	"heapstore/heapfile"
	"heapstore/record"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

var errExit = errors.New("exit")
var errNoFile = errors.New("no heap file open")

var seedNames = []string{"Yannis", "Christofos", "Sofia", "Marianna", "Vagelis", "Maria", "Iosif", "Dionisis", "Konstantina", "Theofilos"}
var seedSurnames = []string{"Ioannidis", "Svingos", "Karvounari", "Rezkalla", "Nikolopoulos", "Berreta", "Koronis", "Gaitanis", "Oikonomou", "Mailis"}
var seedCities = []string{"Athens", "San Francisco", "Los Angeles", "Amsterdam", "London", "New York", "Tokyo", "Hong Kong", "Munich", "Miami"}

// shell executes one command line at a time against the open heap file.
type shell struct {
	bm   *blockfile.Manager
	file *heapfile.File
	out  io.Writer
	rnd  *rand.Rand
}

func (sh *shell) exec(line string) error {
	parts := strings.Fields(line)
	cmd := parts[0]
	args := parts[1:]

	if strings.HasPrefix(cmd, ".") {
		switch strings.ToLower(cmd) {
		case ".help":
			fmt.Fprint(sh.out, helpText)
			return nil
		case ".exit":
			return errExit
		case ".create":
			if len(args) != 1 {
				return errors.New("usage: .create PATH")
			}
			if err := heapfile.CreateFile(sh.bm, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(sh.out, "Heap file created at %s\n", args[0])
			return nil
		case ".open":
			if len(args) != 1 {
				return errors.New("usage: .open PATH")
			}
			if sh.file != nil {
				if err := sh.close(); err != nil {
					return err
				}
			}
			if err := sh.open(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(sh.out, "Heap file opened at %s\n", args[0])
			return nil
		case ".close":
			path, err := sh.path()
			if err != nil {
				return err
			}
			if err := sh.close(); err != nil {
				return err
			}
			fmt.Fprintf(sh.out, "Heap file %s closed\n", path)
			return nil
		case ".stats":
			return sh.stats()
		case ".checksum":
			if sh.file == nil {
				return errNoFile
			}
			sum, err := sh.file.Checksum()
			if err != nil {
				return err
			}
			fmt.Fprintf(sh.out, "%016x\n", sum)
			return nil
		case ".seed":
			if len(args) != 1 {
				return errors.New("usage: .seed N")
			}
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 0 {
				return fmt.Errorf("invalid record count %q", args[0])
			}
			return sh.seed(n)
		case ".export":
			if len(args) != 1 && len(args) != 3 {
				return errors.New("usage: .export PATH [field value]")
			}
			return sh.export(args[0], args[1:])
		}
		return fmt.Errorf("unknown command %s, enter .help for usage hints", cmd)
	}

	if sh.file == nil {
		return errNoFile
	}

	switch strings.ToUpper(cmd) {
	case "INSERT":
		if len(args) != 4 {
			return errors.New("usage: INSERT id name surname city")
		}
		id, err := strconv.ParseInt(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}
		rec, err := record.New(int32(id), args[1], args[2], args[3])
		if err != nil {
			return err
		}
		rowID, err := sh.file.Insert(rec)
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "Inserted row %d\n", rowID)
		return nil

	case "GET":
		if len(args) != 1 {
			return errors.New("usage: GET rowid")
		}
		rowID, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid row id %q", args[0])
		}
		rec, err := sh.file.GetEntry(heapfile.RowID(rowID))
		if err != nil {
			return err
		}
		_, err = sh.out.Write(rec.AppendLine(nil))
		return err

	case "SCAN":
		switch len(args) {
		case 0:
			return sh.file.PrintAllEntries(sh.out, "", nil)
		case 2:
			return sh.file.PrintAllEntries(sh.out, args[0], args[1])
		}
		return errors.New("usage: SCAN [field value]")
	}

	return fmt.Errorf("unknown command %s, enter .help for usage hints", cmd)
}

func (sh *shell) open(path string) error {
	f, err := heapfile.OpenFile(sh.bm, path)
	if err != nil {
		return err
	}
	sh.file = f
	return nil
}

func (sh *shell) close() error {
	if sh.file == nil {
		return errNoFile
	}
	if err := sh.file.Close(); err != nil {
		return err
	}
	sh.file = nil
	return nil
}

func (sh *shell) path() (string, error) {
	if sh.file == nil {
		return "", errNoFile
	}
	return sh.file.Path(), nil
}

func (sh *shell) stats() error {
	if sh.file == nil {
		return errNoFile
	}
	st, err := sh.file.Stats()
	if err != nil {
		return err
	}

	fmt.Fprintf(sh.out, "Blocks: %d (%d data, block size %d)\n", st.Blocks, st.DataBlocks, blockfile.BlockSize)
	fmt.Fprintf(sh.out, "Records: %d (%d per block, %d bytes each)\n", st.Records, st.RecordsPerBlock, record.Size)

	ps := sh.bm.PoolStats()
	fmt.Fprintf(sh.out, "Pool: %d hits, %d misses, %d evictions, %d write backs\n",
		ps[buffer.StatHit], ps[buffer.StatMiss], ps[buffer.StatEviction], ps[buffer.StatWriteBack])
	return nil
}

// seed inserts n records with random ids and names.
func (sh *shell) seed(n int) error {
	if sh.file == nil {
		return errNoFile
	}
	if sh.rnd == nil {
		sh.rnd = rand.New(rand.NewSource(rand.Int63()))
	}

	first := heapfile.RowID(0)
	for i := 0; i < n; i++ {
		rec := record.Record{
			ID:      int32(sh.rnd.Intn(1 << 20)),
			Name:    seedNames[sh.rnd.Intn(len(seedNames))],
			Surname: seedSurnames[sh.rnd.Intn(len(seedSurnames))],
			City:    seedCities[sh.rnd.Intn(len(seedCities))],
		}
		rowID, err := sh.file.Insert(rec)
		if err != nil {
			return err
		}
		if i == 0 {
			first = rowID
		}
	}

	if n > 0 {
		fmt.Fprintf(sh.out, "Inserted rows %d..%d\n", first, first+heapfile.RowID(n-1))
	}
	return nil
}

// export writes scan output to path. Output is zstd compressed when path ends in .zst.
func (sh *shell) export(path string, filter []string) (err error) {
	if sh.file == nil {
		return errNoFile
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return sh.writeExport(f, strings.HasSuffix(path, ".zst"), filter)
}

// writeExport writes the scan output to w, zstd compressed if compress is set. The encoder is closed before
// returning so a failed final flush is reported.
func (sh *shell) writeExport(w io.Writer, compress bool, filter []string) (err error) {
	if compress {
		enc, zerr := zstd.NewWriter(w)
		if zerr != nil {
			return zerr
		}
		defer func() {
			if cerr := enc.Close(); err == nil {
				err = cerr
			}
		}()
		w = enc
	}

	if len(filter) == 2 {
		return sh.file.PrintAllEntries(w, filter[0], filter[1])
	}
	return sh.file.PrintAllEntries(w, "", nil)
}
