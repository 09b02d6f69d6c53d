// Command testserver is a local HTTP target for trying out firedrill
// configs. It can inject latency and a configurable error rate.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"
)

func main() {
	port := flag.Int("port", 8080, "listening port")
	latency := flag.Duration("latency", 0, "base response latency")
	jitter := flag.Duration("jitter", 0, "random extra latency up to this value")
	errorRate := flag.Float64("error-rate", 0, "fraction of requests answered with 500 (0..1)")
	flag.Parse()

	var hits atomic.Int64
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	delay := func() {
		d := *latency
		if *jitter > 0 {
			d += time.Duration(rnd.Int63n(int64(*jitter)))
		}
		if d > 0 {
			time.Sleep(d)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		delay()
		json.NewEncoder(w).Encode(map[string]any{"status": "healthy", "version": "1.0.0"})
	})
	mux.HandleFunc("/items", func(w http.ResponseWriter, r *http.Request) {
		delay()
		if *errorRate > 0 && rnd.Float64() < *errorRate {
			http.Error(w, "injected failure", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{"id": 1, "name": "widget"}, {"id": 2, "name": "gadget"}},
			"queue_depth": rnd.Intn(20),
		})
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		delay()
		json.NewEncoder(w).Encode(map[string]string{"token": fmt.Sprintf("tok-%d", hits.Add(1))})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		delay()
		fmt.Fprintf(w, "request %d\n", hits.Add(1))
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("test server listening on %s (latency=%s jitter=%s error-rate=%.2f)", addr, *latency, *jitter, *errorRate)
	log.Fatal(http.ListenAndServe(addr, mux))
}
