package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pkg/profile"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/storage"
	"github.com/hailam/chessplay/internal/tablebase"
	"github.com/hailam/chessplay/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "directory to write a CPU profile (cpu.pprof) into when main returns")
	memprofile = flag.String("memprofile", "", "directory to write a memory profile (mem.pprof) into when main returns; ignored when -cpuprofile is set")
	hashMB     = flag.Int("hash", 64, "transposition table size in MB")
	bookPath   = flag.String("book", "", "path to a Polyglot opening book")
	syzygyPath = flag.String("syzygy", "", "path to a directory of Syzygy tablebase files")
	bench      = flag.Bool("bench", false, "run a fixed-depth benchmark and exit")
)

func main() {
	flag.Parse()

	if *cpuprofile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*cpuprofile), profile.NoShutdownHook).Stop()
	} else if *memprofile != "" {
		defer profile.Start(profile.MemProfile, profile.ProfilePath(*memprofile), profile.NoShutdownHook).Stop()
	}

	eng := engine.NewEngine(*hashMB)

	if *bookPath != "" {
		if err := eng.LoadBook(*bookPath); err != nil {
			log.Printf("warning: failed to load book %s: %v", *bookPath, err)
		}
	} else if dataDir, err := storage.GetDataDir(); err == nil {
		autoPath := dataDir + "/book.bin"
		if _, statErr := os.Stat(autoPath); statErr == nil {
			if err := eng.LoadBook(autoPath); err != nil {
				log.Printf("warning: failed to load book %s: %v", autoPath, err)
			}
		}
	}

	if *syzygyPath != "" {
		prober := tablebase.NewSyzygyProber(*syzygyPath)
		eng.SetTablebase(prober)
	}

	if *bench {
		runBench(eng)
		return
	}

	protocol := uci.New(eng)
	protocol.Run()
}

func runBench(eng *engine.Engine) {
	const depth = 12
	pos := board.NewPosition()
	eng.OnInfo = func(info engine.SearchInfo) {
		fmt.Printf("info depth %d score %s nodes %d time %dms\n",
			info.Depth, engine.ScoreToString(info.Score), info.Nodes, info.Time.Milliseconds())
	}
	move := eng.SearchWithLimits(pos, engine.SearchLimits{Depth: depth})
	fmt.Printf("bestmove %s\n", move.String())
}
