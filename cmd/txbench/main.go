// txbench measures optimistic transaction throughput under contention. It
// runs concurrent increment transactions over a shared set of counter keys
// against a live Redis and reports latency percentiles and the conflict rate.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/redis/go-redis/v9"

	"github.com/kvutil/redisutil/config"
	"github.com/kvutil/redisutil/jsonval"
	"github.com/kvutil/redisutil/log"
	"github.com/kvutil/redisutil/txn"
)

var (
	configPath = flag.String("config", "", "config file path")
	addr       = flag.String("addr", "", "redis address")
	workers    = flag.Int("workers", 0, "number of concurrent workers")
	requests   = flag.Int("requests", 0, "total number of transactions")
	keys       = flag.Int("keys", 0, "number of distinct counter keys")
)

type workerResult struct {
	latencies []float64 // Per-transaction latency in milliseconds.
	conflicts int
	seconds   float64
}

func main() {
	flag.Parse()

	conf := config.DefaultConf
	if *configPath != "" {
		var err error
		conf, err = config.ParseFile(*configPath)
		if err != nil {
			log.Fatalf("%v", err)
		}
	}
	if *addr != "" {
		conf.Addr = *addr
	}
	if *workers > 0 {
		conf.Workers = *workers
	}
	if *requests > 0 {
		conf.Requests = *requests
	}
	if *keys > 0 {
		conf.Keys = *keys
	}
	log.SetLevelByString(conf.LogLevel)

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	defer client.Close()

	if err := seed(ctx, client, conf.Keys); err != nil {
		log.Fatalf("seed counters: %v", err)
	}

	perWorker := conf.Requests / conf.Workers
	fmt.Printf("Running %d transactions across %d workers on %d keys...\n",
		perWorker*conf.Workers, conf.Workers, conf.Keys)

	results := make(chan workerResult)
	for w := 0; w < conf.Workers; w++ {
		go func() {
			res, err := runWorker(ctx, client, conf.Keys, perWorker)
			if err != nil {
				log.Errorf("worker: %v", err)
			}
			results <- res
		}()
	}

	latencies := []float64{}
	throughputs := []float64{}
	conflicts := 0
	for w := 0; w < conf.Workers; w++ {
		res := <-results
		latencies = append(latencies, res.latencies...)
		conflicts += res.conflicts
		if res.seconds > 0 {
			throughputs = append(throughputs, float64(len(res.latencies))/res.seconds)
		}
	}

	median, _ := stats.Median(latencies)
	p95, _ := stats.Percentile(latencies, 95.0)
	p99, _ := stats.Percentile(latencies, 99.0)
	total, _ := stats.Sum(throughputs)

	fmt.Printf("Completed transactions: %d\n", len(latencies))
	fmt.Printf("Conflict retries: %d\n", conflicts)
	fmt.Printf("Median latency (ms): %.3f\n", median)
	fmt.Printf("95th/99th percentile (ms): %.3f, %.3f\n", p95, p99)
	fmt.Printf("Total throughput (txn/s): %.1f\n", total)
}

// seed writes a zero counter to every key in one pipeline.
func seed(ctx context.Context, client *redis.Client, keys int) error {
	pipe := client.Pipeline()
	for i := 0; i < keys; i++ {
		if err := jsonval.Set(ctx, pipe, counterKey(i), 0); err != nil {
			return err
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}

// runWorker increments randomly chosen counters n times on its own dedicated
// connection. Transactions that lose a WATCH race are retried by txn.Run; the
// extra body executions are counted as conflicts.
func runWorker(ctx context.Context, client *redis.Client, keys, n int) (workerResult, error) {
	conn := client.Conn()
	defer conn.Close()
	pipe := conn.TxPipeline()

	res := workerResult{latencies: make([]float64, 0, n)}
	begin := time.Now()
	for i := 0; i < n; i++ {
		key := counterKey(rand.Intn(keys))
		attempts := 0

		start := time.Now()
		_, err := txn.Run(ctx, conn, pipe, []string{key}, func(ctx context.Context) (int, error) {
			attempts++
			value, err := jsonval.Get[int](ctx, conn, key)
			if err != nil {
				return 0, err
			}
			value++
			if err := jsonval.Set(ctx, pipe, key, value); err != nil {
				return 0, err
			}
			return value, nil
		})
		if err != nil {
			res.seconds = time.Since(begin).Seconds()
			return res, err
		}

		res.latencies = append(res.latencies, float64(time.Since(start).Microseconds())/1000.0)
		res.conflicts += attempts - 1
	}
	res.seconds = time.Since(begin).Seconds()
	return res, nil
}

func counterKey(i int) string {
	return fmt.Sprintf("txbench/counter-%d", i)
}
