package record

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/cmd/util"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/records"
	"github.com/google/uuid"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for medrec servers",
		Long:    "Runs add, get, update, list and delete against the configured shard and reports latency percentiles. All records created by the run are deleted again in the delete phase.",
		PreRunE: processPerfConfig,
		RunE:    runPerf,
	}
	perfOps        = 1000
	perfNumThreads = 10
	perfListLimit  = records.DefaultListLimit
	perfSkip       []string
)

func init() {
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Phases to skip (comma separated - e.g. list,update). Skipping add also skips get, update and delete"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of concurrent workers"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 1000, util.WrapString("Number of operations per phase"))
	key = "list-limit"
	perfTestCmd.Flags().Int(key, records.DefaultListLimit, util.WrapString("Page size used by the list phase"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfOps = viper.GetInt("ops")
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfListLimit = viper.GetInt("list-limit")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	if perfOps <= 0 {
		return fmt.Errorf("ops must be greater than 0")
	}
	return nil
}

// perfResult is the outcome of one phase
type perfResult struct {
	Phase    string
	Count    int64
	Errors   int64
	Wall     time.Duration
	Mean     time.Duration
	P50      time.Duration
	P95      time.Duration
	P99      time.Duration
	Max      time.Duration
	Skipped  bool
	Reason   string
	Throughput float64
}

func runPerf(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	config := util.GetClientConfig()

	fmt.Fprintln(out, "Performance testing tool for medrec servers")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintln(out, config.String())
	fmt.Fprintf(out, "Shard: %d\nThreads: %d\nOps per phase: %d\n\n", util.GetShardID(), perfNumThreads, perfOps)

	registry := gometrics.NewRegistry()
	runID := uuid.NewString()

	var (
		idsMu sync.Mutex
		ids   []uint64
	)

	results := []perfResult{
		runPhase(registry, "add", perfOps, func(i int) error {
			rec, err := rpcRecords.AddPatientRecord(records.Payload{
				Name:      fmt.Sprintf("perf-%s-%d", runID, i),
				Complaint: uuid.NewString(),
			})
			if err != nil {
				return err
			}
			idsMu.Lock()
			ids = append(ids, rec.ID)
			idsMu.Unlock()
			return nil
		}),
	}
	printResult(out, results[0])

	// the remaining phases only read ids, no lock needed
	slices.Sort(ids)

	phases := []struct {
		name  string
		count int
		fn    func(i int) error
	}{
		{"get", perfOps, func(i int) error {
			_, err := rpcRecords.GetPatientRecord(ids[i%len(ids)])
			return err
		}},
		{"update", perfOps, func(i int) error {
			_, err := rpcRecords.UpdatePatientRecord(ids[i%len(ids)], records.Payload{
				Name:      fmt.Sprintf("perf-%s-%d", runID, i),
				Complaint: uuid.NewString(),
			})
			return err
		}},
		{"list", perfOps, func(i int) error {
			_, err := rpcRecords.ListPatientRecords(0, perfListLimit)
			return err
		}},
		{"delete", len(ids), func(i int) error {
			_, err := rpcRecords.DeletePatientRecord(ids[i])
			return err
		}},
	}

	for _, p := range phases {
		var res perfResult
		if p.name != "list" && len(ids) == 0 {
			res = perfResult{Phase: p.name, Skipped: true, Reason: "no records were added"}
		} else {
			res = runPhase(registry, p.name, p.count, p.fn)
		}
		results = append(results, res)
		printResult(out, res)
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nresults written to %s\n", csvPath)
	}
	return nil
}

// runPhase calls fn n times with the indices 0..n-1 spread over perfNumThreads workers
func runPhase(registry gometrics.Registry, name string, n int, fn func(i int) error) perfResult {
	if shouldSkip(name) {
		return perfResult{Phase: name, Skipped: true, Reason: "skipped"}
	}

	timer := gometrics.GetOrRegisterTimer("perf."+name+".latency", registry)
	failures := gometrics.GetOrRegisterCounter("perf."+name+".errors", registry)

	var next atomic.Int64
	var wg sync.WaitGroup
	start := time.Now()

	for w := 0; w < perfNumThreads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := next.Add(1) - 1
				if i >= int64(n) {
					return
				}
				opStart := time.Now()
				if err := fn(int(i)); err != nil {
					failures.Inc(1)
					log.Printf("(%s) - error: %v\n", name, err)
					continue
				}
				timer.UpdateSince(opStart)
			}
		}()
	}
	wg.Wait()
	wall := time.Since(start)

	snap := timer.Snapshot()
	ps := snap.Percentiles([]float64{0.5, 0.95, 0.99})
	res := perfResult{
		Phase:  name,
		Count:  snap.Count(),
		Errors: failures.Count(),
		Wall:   wall,
		Mean:   time.Duration(snap.Mean()),
		P50:    time.Duration(ps[0]),
		P95:    time.Duration(ps[1]),
		P99:    time.Duration(ps[2]),
		Max:    time.Duration(snap.Max()),
	}
	if wall > 0 {
		res.Throughput = float64(res.Count) / wall.Seconds()
	}
	return res
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(phase string) bool {
	return slices.Contains(perfSkip, phase)
}

// printResult prints the result of a phase in a formatted way
func printResult(w io.Writer, r perfResult) {
	if r.Skipped {
		fmt.Fprintf(w, "%-10s skipped (%s)\n", r.Phase, r.Reason)
		return
	}
	fmt.Fprintf(w, "%-10s %6d ops %4d errors  mean %-12s p50 %-12s p95 %-12s p99 %-12s max %-12s %.0f ops/sec\n",
		r.Phase, r.Count, r.Errors, r.Mean, r.P50, r.P95, r.P99, r.Max, r.Throughput)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results []perfResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	config := util.GetClientConfig()
	writer := csv.NewWriter(file)

	header := []string{
		"Phase", "Count", "Errors", "WallNs", "MeanNs", "P50Ns", "P95Ns", "P99Ns", "MaxNs", "OpsPerSec", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"ShardID", "Serializer", "Transport", "Threads",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range results {
		row := []string{
			r.Phase,
			strconv.FormatInt(r.Count, 10),
			strconv.FormatInt(r.Errors, 10),
			strconv.FormatInt(r.Wall.Nanoseconds(), 10),
			strconv.FormatInt(r.Mean.Nanoseconds(), 10),
			strconv.FormatInt(r.P50.Nanoseconds(), 10),
			strconv.FormatInt(r.P95.Nanoseconds(), 10),
			strconv.FormatInt(r.P99.Nanoseconds(), 10),
			strconv.FormatInt(r.Max.Nanoseconds(), 10),
			fmt.Sprintf("%.0f", r.Throughput),
			strconv.FormatBool(r.Skipped),
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			strconv.FormatUint(util.GetShardID(), 10),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for phase %s: %w", r.Phase, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
