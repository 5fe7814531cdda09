package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/spindleworks/spindle/spark"
)

// Soak the runtime with layered dynamic graphs: a row of sources, layers
// of deriveds reading a few nodes from the layer above (some through a
// branch that flips at runtime), and effects on the last layer. Each run
// reports the sum its effects observed as a checksum column; the tool does
// not compare it against an expected value.

type stressConfig struct {
	name        string
	width       int
	totalLayers int
	nSources    int
	dynamic     bool
	iterations  int
}

func main() {
	log.Print("Starting spark stress run, please wait...")
	defer log.Print("Finished spark stress run")

	cfgs := []stressConfig{
		{name: "small static", width: 10, totalLayers: 5, nSources: 2, dynamic: false, iterations: 50_000},
		{name: "small dynamic", width: 10, totalLayers: 5, nSources: 2, dynamic: true, iterations: 25_000},
		{name: "wide", width: 1_000, totalLayers: 4, nSources: 4, dynamic: false, iterations: 2_000},
		{name: "deep", width: 5, totalLayers: 250, nSources: 3, dynamic: false, iterations: 500},
		{name: "churny", width: 100, totalLayers: 10, nSources: 6, dynamic: true, iterations: 2_000},
	}

	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.SetHeader([]string{"scenario", "iterations", "effect runs", "checksum", "elapsed"})

	for _, cfg := range cfgs {
		runs, checksum, elapsed := runStress(cfg)
		tbl.Append([]string{
			cfg.name,
			humanize.Comma(int64(cfg.iterations)),
			humanize.Comma(int64(runs)),
			fmt.Sprintf("%d", checksum),
			elapsed.String(),
		})
	}
	tbl.Render()
}

func runStress(cfg stressConfig) (effectRuns int, checksum int64, elapsed time.Duration) {
	rng := rand.New(rand.NewSource(42))
	rs := spark.New(func(from *spark.Node, err error) {
		log.Panic(err)
	})

	sources := make([]*spark.Signal[int], cfg.width)
	for i := range sources {
		sources[i] = spark.NewSignal(rs, i)
	}

	flip := spark.NewSignal(rs, false)

	prev := make([]func() int, cfg.width)
	for i, s := range sources {
		s := s
		prev[i] = s.Value
	}
	for layer := 0; layer < cfg.totalLayers; layer++ {
		next := make([]func() int, cfg.width)
		for i := 0; i < cfg.width; i++ {
			picks := make([]func() int, cfg.nSources)
			for p := range picks {
				picks[p] = prev[rng.Intn(len(prev))]
			}
			dynamic := cfg.dynamic && rng.Float64() < 0.25
			c := spark.NewComputed(rs, func(oldValue int) (int, error) {
				total := 0
				if dynamic && flip.Value() {
					total = picks[0]()
				} else {
					for _, pick := range picks {
						total += pick()
					}
				}
				return total, nil
			})
			next[i] = c.Value
		}
		prev = next
	}

	for _, leaf := range prev {
		leaf := leaf
		spark.NewEffect(rs, func() (spark.TeardownFunc, error) {
			effectRuns++
			checksum += int64(leaf())
			return nil, nil
		})
	}

	start := time.Now()
	for i := 0; i < cfg.iterations; i++ {
		src := sources[rng.Intn(len(sources))]
		src.SetValue(src.Value() + 1)
		if cfg.dynamic && i%100 == 99 {
			flip.SetValue(!flip.Value())
		}
	}
	elapsed = time.Since(start)
	return effectRuns, checksum, elapsed
}
