package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"voxelcircuit.ai/internal/persistence/indexdb"
	"voxelcircuit.ai/internal/transport/ws"
)

// runIndex is the part of *indexdb.SQLiteIndex the HTTP surface reads.
type runIndex interface {
	Stats() indexdb.Stats
	RecentRuns(ctx context.Context, limit int) ([]indexdb.RunSummary, error)
}

func newMux(wsSrv *ws.Server, idx *indexdb.SQLiteIndex) *http.ServeMux {
	var ri runIndex
	if idx != nil {
		ri = idx
	}
	return buildMux(wsSrv, ri)
}

func buildMux(wsSrv *ws.Server, idx runIndex) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		if idx == nil {
			return
		}
		s := idx.Stats()
		fmt.Fprintf(rw, "# HELP voxelcircuit_index_queue_depth Run index writer backlog.\n")
		fmt.Fprintf(rw, "# TYPE voxelcircuit_index_queue_depth gauge\n")
		fmt.Fprintf(rw, "voxelcircuit_index_queue_depth %d\n", s.QueueDepth)

		fmt.Fprintf(rw, "# HELP voxelcircuit_index_queue_capacity Run index writer queue capacity.\n")
		fmt.Fprintf(rw, "# TYPE voxelcircuit_index_queue_capacity gauge\n")
		fmt.Fprintf(rw, "voxelcircuit_index_queue_capacity %d\n", s.QueueCapacity)

		fmt.Fprintf(rw, "# HELP voxelcircuit_index_dropped_total Run index rows dropped because the queue was full.\n")
		fmt.Fprintf(rw, "# TYPE voxelcircuit_index_dropped_total counter\n")
		fmt.Fprintf(rw, "voxelcircuit_index_dropped_total %d\n", s.DroppedTotal)
	})
	mux.HandleFunc("/admin/v1/runs", func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		if idx == nil {
			http.Error(rw, "run index disabled", http.StatusServiceUnavailable)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		runs, err := idx.RecentRuns(r.Context(), limit)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		if runs == nil {
			runs = []indexdb.RunSummary{}
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(runs)
	})
	mux.HandleFunc("/v1/ws", wsSrv.Handler())
	return mux
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
