// pairchat-bench hammers a running pairchat server with concurrent GETs and
// reports throughput and latency percentiles. Read endpoints only; point it
// at /healthz for raw router overhead or at /v1/presence, /v1/unread?user=..
// for store-backed query cost.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"
)

func main() {
	target := flag.String("target", "http://127.0.0.1:8080", "base URL of a running pairchat server")
	path := flag.String("path", "/healthz", "endpoint to benchmark")
	conns := flag.Int("c", 8, "concurrent workers")
	dur := flag.Duration("d", 10*time.Second, "benchmark duration")
	flag.Parse()

	url := *target + *path
	client := &fasthttp.Client{
		Name:            "pairchat-bench",
		MaxConnsPerHost: *conns * 2,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
	}

	var ok, fail uint64
	perWorker := make([][]time.Duration, *conns)
	deadline := time.Now().Add(*dur)

	var wg sync.WaitGroup
	for i := 0; i < *conns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := fasthttp.AcquireRequest()
			resp := fasthttp.AcquireResponse()
			defer fasthttp.ReleaseRequest(req)
			defer fasthttp.ReleaseResponse(resp)
			req.SetRequestURI(url)
			for time.Now().Before(deadline) {
				start := time.Now()
				if err := client.Do(req, resp); err != nil || resp.StatusCode() != fasthttp.StatusOK {
					atomic.AddUint64(&fail, 1)
					continue
				}
				atomic.AddUint64(&ok, 1)
				perWorker[i] = append(perWorker[i], time.Since(start))
			}
		}(i)
	}
	wg.Wait()

	var all []time.Duration
	for _, ls := range perWorker {
		all = append(all, ls...)
	}
	sort.Slice(all, func(a, b int) bool { return all[a] < all[b] })

	total := atomic.LoadUint64(&ok)
	fmt.Printf("%s: %d ok, %d failed, %.0f req/s over %v\n",
		url, total, atomic.LoadUint64(&fail), float64(total)/dur.Seconds(), *dur)
	if len(all) == 0 {
		fmt.Fprintln(os.Stderr, "no successful requests; is the server up?")
		os.Exit(1)
	}
	fmt.Printf("latency p50=%v p99=%v max=%v\n",
		all[len(all)/2], all[len(all)*99/100], all[len(all)-1])
}
