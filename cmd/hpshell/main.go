package main

import (
	"flag"
	"fmt"
	"heapstore/blockfile"
	"heapstore/common"
	"heapstore/heapfile"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
)

// Command completer for readline
var completer = readline.NewPrefixCompleter(
	readline.PcItem(".help"),
	readline.PcItem(".create"),
	readline.PcItem(".open"),
	readline.PcItem(".close"),
	readline.PcItem(".exit"),
	readline.PcItem(".stats"),
	readline.PcItem(".checksum"),
	readline.PcItem(".seed"),
	readline.PcItem(".export"),
	readline.PcItem("INSERT"),
	readline.PcItem("GET"),
	readline.PcItem("SCAN",
		readline.PcItem("id"),
		readline.PcItem("name"),
		readline.PcItem("surname"),
		readline.PcItem("city"),
	),
)

const helpText = `
hpshell - interactive shell over heap files.

Usage:
  hpshell [options] [heap_file]   - Start with an optional heap file, created if missing

Commands:
  .help                       - Show this help message
  .create PATH                - Create an empty heap file at PATH
  .open PATH                  - Open the heap file at PATH
  .close                      - Close the current heap file
  .exit                       - Exit the program
  .stats                      - Show block, record and buffer pool counts
  .checksum                   - Show the xxhash64 digest of all records
  .seed N                     - Insert N random records
  .export PATH [field value]  - Write scan output to PATH, zstd compressed if PATH ends in .zst

  INSERT id name surname city - Append a record
  GET rowid                   - Show the record with the given row id
  SCAN                        - Show every record
  SCAN field value            - Show records whose field (id, name, surname, city) equals value
`

type Config struct {
	Path        string
	HistoryFile string
	Verbose     bool
	Storage     blockfile.Config
}

func main() {
	config := parseFlags()

	if !config.Verbose {
		log.SetOutput(io.Discard)
	}

	bm, err := blockfile.NewManager(config.Storage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing block layer: %s\n", err)
		os.Exit(1)
	}
	defer bm.Close()

	if err := heapfile.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing heap file layer: %s\n", err)
		os.Exit(1)
	}

	sh := &shell{bm: bm, out: os.Stdout}
	if config.Path != "" {
		if _, err := os.Stat(config.Path); os.IsNotExist(err) {
			if err := heapfile.CreateFile(bm, config.Path); err != nil {
				fmt.Fprintf(os.Stderr, "Error creating heap file: %s\n", err)
				os.Exit(1)
			}
		}
		if err := sh.open(config.Path); err != nil {
			fmt.Fprintf(os.Stderr, "Error opening heap file: %s\n", err)
			os.Exit(1)
		}
	}

	runInteractive(sh, config.HistoryFile)
}

// parseFlags parses command line flags and returns a Config
func parseFlags() Config {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: hpshell [options] [heap_file]\n\n")
		fmt.Fprintf(flag.CommandLine.Output(), "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(flag.CommandLine.Output(), "\nFor more details, start hpshell and type .help\n")
	}

	defaults := blockfile.DefaultConfig()
	poolSize := flag.Int("pool", defaults.PoolSize, "Number of blocks kept in memory")
	replacer := flag.String("replacer", defaults.Replacer, "Buffer replacement policy: clock, lru or random")
	maxOpen := flag.Int("max-open", common.MaxOpenFiles, "Maximum number of open files")
	history := flag.String("history", filepath.Join(os.TempDir(), ".hpshell_history"), "History file")
	verbose := flag.Bool("v", false, "Log block layer activity to stderr")

	flag.Parse()

	var path string
	if flag.NArg() > 0 {
		path = flag.Arg(0)
	}

	return Config{
		Path:        path,
		HistoryFile: *history,
		Verbose:     *verbose,
		Storage: blockfile.Config{
			PoolSize:     *poolSize,
			Replacer:     *replacer,
			MaxOpenFiles: *maxOpen,
		},
	}
}

// runInteractive reads commands until .exit or end of input
func runInteractive(sh *shell, historyFile string) {
	fmt.Println("hpshell")
	fmt.Println("Enter .help for usage hints.")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "hp> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing readline: %s\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	for {
		if sh.file != nil {
			rl.SetPrompt(fmt.Sprintf("hp:%s> ", sh.file.Path()))
		} else {
			rl.SetPrompt("hp> ")
		}

		line, readErr := rl.Readline()
		if readErr != nil {
			if readErr == readline.ErrInterrupt {
				if len(line) == 0 {
					break
				}
				continue
			} else if readErr == io.EOF {
				break
			}
			fmt.Fprintf(os.Stderr, "Error reading input: %s\n", readErr)
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := sh.exec(line); err != nil {
			if err == errExit {
				break
			}
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
	}

	if err := sh.close(); err != nil && err != errNoFile {
		fmt.Fprintf(os.Stderr, "Error closing heap file: %s\n", err)
	}
	fmt.Println("Goodbye!")
}
