package main

import (
	"fmt"
	"heapstore/blockfile"
	"heapstore/common"
	"heapstore/heapfile"
	"heapstore/record"
	"log"
	"os"
	"path/filepath"
)

const recordsNum = 50

var demoNames = []string{"Yannis", "Sofia", "Marianna", "Vagelis", "Maria"}
var demoCities = []string{"Athens", "Amsterdam", "London", "Tokyo", "Munich"}

// main creates a heap file, fills it with a few records and reads them back through every access path.
func main() {
	file := filepath.Join(os.TempDir(), "demo.heap")
	common.Remove(file)
	defer common.Remove(file)

	bm, err := blockfile.NewManager(blockfile.DefaultConfig())
	common.PanicIfErr(err)
	defer bm.Close()

	common.PanicIfErr(heapfile.Init())
	common.PanicIfErr(heapfile.CreateFile(bm, file))

	hf, err := heapfile.OpenFile(bm, file)
	common.PanicIfErr(err)

	for i := 0; i < recordsNum; i++ {
		rec, err := record.New(int32(i), demoNames[i%len(demoNames)], fmt.Sprintf("surname_%d", i), demoCities[i%len(demoCities)])
		common.PanicIfErr(err)

		if _, err := hf.Insert(rec); err != nil {
			log.Fatal("insert failed: ", err)
		}
	}

	fmt.Println("RUN PrintAllEntries")
	common.PanicIfErr(hf.PrintAllEntries(os.Stdout, "", nil))

	fmt.Println("\nRUN PrintAllEntries city = Tokyo")
	common.PanicIfErr(hf.PrintAllEntries(os.Stdout, "city", "Tokyo"))

	fmt.Println("\nRUN GetEntry 12")
	rec, err := hf.GetEntry(12)
	common.PanicIfErr(err)
	fmt.Println(rec)

	common.PanicIfErr(hf.Close())
}
