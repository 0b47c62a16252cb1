package kv

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/portkv/portkv/cmd/util"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for portkv servers",
		Long:    "",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix = "__test"
	perfOps       = 10000
	perfWorkers   = 10
	perfKeySpread = 100
	perfValueSize = 100
	perfSkip      = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. put,get)"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 10000, util.WrapString("Number of operations per benchmark"))
	key = "workers"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of concurrent workers"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("Value size in bytes"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfOps = viper.GetInt("ops")
	perfWorkers = viper.GetInt("workers")
	perfKeySpread = viper.GetInt("keys")
	perfValueSize = viper.GetInt("value-size")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for portkv servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Operations: %d, Workers: %d, Keys: %d, Value Size: %d bytes\n",
		perfOps, perfWorkers, perfKeySpread, perfValueSize)
	fmt.Println()

	registry := gometrics.NewRegistry()
	value := []byte(strings.Repeat("x", perfValueSize))

	// Put benchmark
	if !shouldSkip("put") {
		timer := gometrics.NewRegisteredTimer("put", registry)
		runWorkers(func(i int) {
			timer.Time(func() {
				client.SafePut(perfKey(i), value, 0)
			})
		})
		printTimer("put", timer)
	}

	// Get benchmark
	if !shouldSkip("get") {
		timer := gometrics.NewRegisteredTimer("get", registry)
		runWorkers(func(i int) {
			timer.Time(func() {
				client.SafeGet(perfKey(i))
			})
		})
		printTimer("get", timer)
	}

	// Del benchmark
	if !shouldSkip("del") {
		timer := gometrics.NewRegisteredTimer("del", registry)
		runWorkers(func(i int) {
			timer.Time(func() {
				client.SafeDel(perfKey(i))
			})
		})
		printTimer("del", timer)
	}

	return nil
}

// runWorkers spreads perfOps calls of fn over perfWorkers goroutines
func runWorkers(fn func(i int)) {
	var wg sync.WaitGroup
	opsPerWorker := perfOps / perfWorkers

	for w := 0; w < perfWorkers; w++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for i := 0; i < opsPerWorker; i++ {
				fn(offset + i)
			}
		}(w * opsPerWorker)
	}

	wg.Wait()
}

func perfKey(i int) []byte {
	return []byte(fmt.Sprintf("%s-%d", perfKeyPrefix, i%perfKeySpread))
}

func shouldSkip(name string) bool {
	for _, s := range perfSkip {
		if strings.TrimSpace(s) == name {
			return true
		}
	}
	return false
}

// printTimer prints a summary line for one benchmark
func printTimer(name string, timer gometrics.Timer) {
	snapshot := timer.Snapshot()
	fmt.Printf("%-4s: %d ops, %.0f ops/sec, mean %.2fms, p95 %.2fms, p99 %.2fms\n",
		name,
		snapshot.Count(),
		snapshot.RateMean(),
		snapshot.Mean()/float64(time.Millisecond),
		snapshot.Percentile(0.95)/float64(time.Millisecond),
		snapshot.Percentile(0.99)/float64(time.Millisecond),
	)
}
