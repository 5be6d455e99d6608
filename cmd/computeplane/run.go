package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/eigerco/computeplane/internal/chain"
	"github.com/eigerco/computeplane/internal/runtime"
	"github.com/eigerco/computeplane/pkg/db"
	"github.com/eigerco/computeplane/pkg/db/pebble"
	"github.com/eigerco/computeplane/pkg/log"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var checkInvariants bool
	cmd := &cobra.Command{
		Use:   "run <script.json>",
		Short: "Execute the blocks of a script and print one JSON report per block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadScript(args[0])
			if err != nil {
				return err
			}
			params, err := opts.params()
			if err != nil {
				return err
			}
			kv, err := openStore(opts.dbPath)
			if err != nil {
				return err
			}
			defer kv.Close() //nolint:errcheck

			runtimeOpts := []runtime.Option{}
			if checkInvariants {
				runtimeOpts = append(runtimeOpts, runtime.WithInvariantChecks())
			}
			if opts.metricsAddr != "" {
				reg := prometheus.NewRegistry()
				runtimeOpts = append(runtimeOpts, runtime.WithMetrics(runtime.NewMetrics(reg)))
				srv := serveMetrics(opts.metricsAddr, reg)
				defer srv.Close() //nolint:errcheck
			}
			rt := runtime.New(kv, params, runtimeOpts...)
			return replay(rt, s, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&checkInvariants, "check-invariants", true, "verify state invariants after every block")
	return cmd
}

func openStore(path string) (db.KVStore, error) {
	if path == "" {
		return pebble.NewKVStore()
	}
	return pebble.NewPebbleStore(path)
}

// replay initializes genesis on an empty store, migrates an existing one, and
// executes every block newer than the stored head.
func replay(rt *runtime.Runtime, s script, out io.Writer) error {
	head, found, err := rt.LastHeader()
	if err != nil {
		return err
	}
	if found {
		if _, err := rt.Migrate(); err != nil {
			return err
		}
		log.Root.Info().Uint64("head", uint64(head.Number)).Msg("resuming existing chain")
	} else {
		if err := rt.InitGenesis(s.Genesis.resolve()); err != nil {
			return err
		}
		log.Root.Info().Msg("genesis initialized")
	}

	enc := json.NewEncoder(out)
	for _, sb := range s.Blocks {
		if found && sb.Number <= head.Number {
			continue
		}
		b, err := sb.resolve()
		if err != nil {
			return err
		}
		res, err := rt.ExecuteBlock(b)
		if err != nil {
			return fmt.Errorf("block %d: %w", b.Number, err)
		}
		if err := enc.Encode(newReport(res)); err != nil {
			return err
		}
	}
	return nil
}

type eventReport struct {
	Module string      `json:"module"`
	Name   string      `json:"name"`
	Data   chain.Event `json:"data"`
}

type extrinsicReport struct {
	Call      string        `json:"call"`
	OK        bool          `json:"ok"`
	Codespace string        `json:"codespace,omitempty"`
	Code      uint32        `json:"code,omitempty"`
	Log       string        `json:"log,omitempty"`
	Events    []eventReport `json:"events,omitempty"`
}

type blockReport struct {
	Number         uint64            `json:"number"`
	Timestamp      uint64            `json:"timestamp"`
	Reaped         int               `json:"reaped"`
	Initialization []eventReport     `json:"initialization,omitempty"`
	Extrinsics     []extrinsicReport `json:"extrinsics"`
	ResultsRoot    string            `json:"results_root"`
}

func newReport(res runtime.BlockResult) blockReport {
	r := blockReport{
		Number:         uint64(res.Header.Number),
		Timestamp:      res.Header.Timestamp,
		Reaped:         res.Reaped,
		Initialization: eventReports(res.Initialization),
		Extrinsics:     make([]extrinsicReport, 0, len(res.Extrinsics)),
		ResultsRoot:    res.ResultsRoot.String(),
	}
	for _, x := range res.Extrinsics {
		r.Extrinsics = append(r.Extrinsics, extrinsicReport{
			Call:      x.Call,
			OK:        x.OK(),
			Codespace: x.Codespace,
			Code:      x.Code,
			Log:       x.Log,
			Events:    eventReports(x.Events),
		})
	}
	return r
}

func eventReports(events []chain.Event) []eventReport {
	var out []eventReport
	for _, e := range events {
		out = append(out, eventReport{Module: e.Module(), Name: e.EventName(), Data: e})
	}
	return out
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Root.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	return srv
}
