package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"

	"github.com/spindleworks/spindle/spark"
)

const (
	itersKey   = "iters"
	profileKey = "profile"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure spark propagation latency over width x depth grids",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  itersKey,
				Usage: "Writes sampled per grid",
				Value: 100,
			},
			&cli.BoolFlag{
				Name:  profileKey,
				Usage: "Write a CPU profile to default.pgo",
				Value: false,
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

var (
	ww = []int{1, 10, 100, 1_000}
	hh = []int{1, 10, 100}
)

func run(ctx context.Context, cmd *cli.Command) error {
	iters := int(cmd.Uint(itersKey))

	if cmd.Bool(profileKey) {
		f, err := os.Create("default.pgo")
		if err != nil {
			return err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	log.Printf("warming up")
	benchmarkPropagate(1, true)
	benchmarkPropagate(iters, false)
	return nil
}

func benchmarkPropagate(iters int, warmup bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("Spark Signals")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	totalWrites := 0
	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			rs := spark.New(func(from *spark.Node, err error) {
				log.Panic(err)
			})
			src := spark.NewSignal(rs, 1)
			for i := 0; i < w; i++ {
				last := spark.NewComputed(rs, func(oldValue int) (int, error) {
					return src.Value() + 1, nil
				})
				for j := 1; j < h; j++ {
					prev := last
					last = spark.NewComputed(rs, func(oldValue int) (int, error) {
						return prev.Value() + 1, nil
					})
				}

				spark.NewEffect(rs, func() (spark.TeardownFunc, error) {
					last.Value()
					return nil, nil
				})
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.SetValue(src.Value() + 1)
				tach.AddTime(time.Since(start))
				totalWrites++
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	if !warmup {
		tbl.Render()
		log.Printf("sampled %s writes", humanize.Comma(int64(totalWrites)))
	}
}
