// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command elderd wires one approved-node control loop to an in-process
// transport, a health endpoint, and a prometheus metrics endpoint. It
// is a demonstration process, not a deployment target: the genesis
// section it builds has exactly one elder, itself.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luxfi/elders/chain"
	"github.com/luxfi/elders/config"
	"github.com/luxfi/elders/consensus"
	"github.com/luxfi/elders/elog"
	bftengine "github.com/luxfi/elders/engine/bft"
	"github.com/luxfi/elders/health"
	"github.com/luxfi/elders/keys"
	"github.com/luxfi/elders/metrics"
	"github.com/luxfi/elders/node"
	"github.com/luxfi/elders/router"
	"github.com/luxfi/elders/section"
	"github.com/luxfi/elders/sigaccum"
	"github.com/luxfi/elders/state"
	"github.com/luxfi/elders/transport"
	"github.com/luxfi/elders/wire"
	"github.com/luxfi/elders/xorname"
)

// httpOutbox turns a node.Loop's outbound work into wire bytes sent
// over a transport.Adapter, resolving destinations through a Router
// the way spec 4.10-4.11 describes.
type httpOutbox struct {
	log     log.Logger
	adapter transport.Adapter
	route   *router.Router
}

// send forwards payload, which has already been encoded by the caller
// (node.Loop only ever hands out bytes produced by wire.EncodeVariant
// or wire.EncodeMessage), to every address the router resolves dst to.
func (o *httpOutbox) send(dst wire.Dst, payload []byte) {
	dg, err := o.route.Resolve(dst)
	if err != nil {
		o.log.Warn("could not resolve destination", "error", err)
		return
	}
	for _, target := range dg.Targets {
		o.adapter.Send(target.Addr, payload)
	}
}

func (o *httpOutbox) SendToNode(dst xorname.Name, payload []byte) {
	o.send(wire.Dst{Kind: wire.DstNode, Name: dst}, payload)
}

func (o *httpOutbox) SendToSection(dst xorname.Prefix, payload []byte) {
	o.send(wire.Dst{Kind: wire.DstSection, Prefix: dst}, payload)
}

func (o *httpOutbox) Notify(kind string, detail interface{}) {
	o.log.Info("event", "kind", kind, "detail", detail)
}

func (o *httpOutbox) ScheduleTimer(token string, d time.Duration) {
	o.log.Debug("timer scheduled", "token", token, "after", d)
}

func main() {
	network := flag.String("network", "local", "parameter preset: mainnet, testnet, or local")
	addr := flag.String("addr", "127.0.0.1:0", "address this node advertises to peers")
	httpAddr := flag.String("http", "127.0.0.1:8090", "address to serve /health and /metrics on")
	flag.Parse()

	logger := elog.NewNoOpLogger()

	params, err := config.NewBuilder().FromPreset(config.NetworkType(*network)).Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "elderd: invalid network preset %q: %v\n", *network, err)
		os.Exit(1)
	}

	sk, err := bls.NewSecretKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "elderd: generating section key: %v\n", err)
		os.Exit(1)
	}
	ourID := ids.GenerateTestNodeID()
	var ourName xorname.Name
	copy(ourName[:], ourID[:])

	ki := chain.KeyInfo{Prefix: xorname.Prefix{}, Version: 0, Key: sk.PublicKey()}
	genesisSig, err := sk.Sign(chain.EncodeKeyInfo(ki))
	if err != nil {
		fmt.Fprintf(os.Stderr, "elderd: signing genesis key info: %v\n", err)
		os.Exit(1)
	}
	ourChain := chain.New(chain.ProofBlock{KeyInfo: ki, Signature: genesisSig})

	info := section.EldersInfo{
		Prefix:  xorname.Prefix{},
		Version: 0,
		Elders: map[xorname.Name]section.P2pNode{
			ourName: {NodeID: ourID, Name: ourName, Addr: *addr},
		},
		KeySet: &keys.PublicKeySet{
			PublicKey: sk.PublicKey(),
			ByElder:   map[ids.NodeID]*bls.PublicKey{ourID: sk.PublicKey()},
		},
	}
	st := state.New(logger, ourChain, info)
	st.HandledGenesisEvent = true

	eng, err := consensus.New(logger, consensus.Config{
		OurID:  ourID,
		Elders: []ids.NodeID{ourID},
		BFT:    bftengine.Config{NodeID: ourID.String(), Validators: []string{ourID.String()}},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "elderd: starting consensus engine: %v\n", err)
		os.Exit(1)
	}

	kp := keys.NewProvider(ourID, info.KeySet, &keys.SecretKeyShare{NodeID: ourID, Secret: sk})
	sa := sigaccum.New(logger, nil)

	net := transport.NewNetwork()
	adapter := net.NewAdapter(*addr)
	route := router.New(st, ourName, func() []section.EldersInfo { return nil })
	outbox := &httpOutbox{log: logger, adapter: adapter, route: route}

	loopParams := node.Params{
		ElderSize:             params.ElderSize,
		MinAge:                params.MinAge,
		SplitThreshold:        params.SplitThreshold,
		RelocateCoolDownSteps: int32(params.RelocateCoolDownSteps),
	}
	loop := node.New(logger, outbox, ourID, ourName, eng, st, kp, sa, loopParams)

	adapter.RegisterHandler(func(ev transport.Event) {
		switch ev.Kind {
		case transport.NewMessage:
			variant, err := wire.DecodeVariant(ev.Bytes)
			if err != nil {
				logger.Warn("dropping undecodable inbound message", "from", ev.Addr, "error", err)
				return
			}
			logger.Debug("inbound message", "from", ev.Addr, "kind", variant.Kind)
		case transport.ConnectionFailure:
			logger.Warn("connection failure", "addr", ev.Addr)
		case transport.PeerLost:
			logger.Warn("peer lost", "addr", ev.Addr)
		}
	})

	reg := prometheus.NewRegistry()
	// procMetrics is the process-wide metrics bundle; elderd has no
	// parent context to hand it a luxfi/metric gatherer the way an
	// embedding host process would, so Gatherer stays nil here.
	procMetrics := metrics.NewMetrics(reg)
	sectionMetrics, err := metrics.NewSection(procMetrics.Registry, "elderd")
	if err != nil {
		fmt.Fprintf(os.Stderr, "elderd: registering metrics: %v\n", err)
		os.Exit(1)
	}
	sectionMetrics.Elders.Set(float64(len(info.Elders)))
	sectionMetrics.Members.Set(float64(len(info.Elders)))
	loop.SetMetrics(sectionMetrics)

	healthReg := health.NewRegistry()
	healthReg.Register("section", health.SectionChecker(st, params))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		report := healthReg.Check(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if !report.Healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(report)
	})

	srv := &http.Server{Addr: *httpAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server stopped", "error", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := adapter.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "elderd: starting transport: %v\n", err)
		os.Exit(1)
	}

	logger.Info("elderd started", "network", *network, "addr", *addr, "http", *httpAddr, "elders", len(info.Elders))

	ticker := time.NewTicker(params.GossipPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("elderd shutting down")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = srv.Shutdown(shutdownCtx)
			shutdownCancel()
			return
		case <-ticker.C:
			loop.PollAll()
		}
	}
}
