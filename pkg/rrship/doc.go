// Package rrship provides an embeddable recorder for heart rate straps.
//
// A Recorder receives raw heart rate notifications from a transport,
// decodes them and uploads each RR interval and heart rate to a
// measurement service through a bounded worker pool. It can be used from
// the rrship CLI or embedded in other Go programs.
//
// # Basic Usage
//
//	cfg := rrship.DefaultConfig()
//	cfg.ServiceURL = "https://rr.example.com"
//	cfg.AuthKey = "your-api-key"
//
//	rec, err := rrship.New(cfg, rrship.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := rec.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer rec.Stop()
//
//	// Wire a transport: it calls rec.Events() and is bound with Attach.
//	rec.Attach(strap)
//
//	if err := rec.TestConnection(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	_ = rec.Record(ctx, 5*time.Minute)
//	fmt.Println(rec.Intervals())
//
// # Phases
//
// A recorder is always in one phase: Idle, ConnectionTest or Recording.
// During ConnectionTest notifications only validate the strap contact and
// nothing is uploaded. Outside ConnectionTest every decodable notification
// is retained locally and uploaded.
//
// # Event Handling
//
// Implement [EventHandler] (embed [BaseEventHandler] for no-op defaults) and
// pass it via [WithEventHandler]. Delivery events are called from worker
// goroutines and must return quickly.
//
// # Plugins
//
// Plugins are initialized by [Recorder.Start] in registration order and shut
// down by [Recorder.Stop] in reverse order:
//
//	import "github.com/bft-labs/rrship/plugins/configwatcher"
//
//	rec, err := rrship.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{Path: cfgPath}),
//	)
package rrship
