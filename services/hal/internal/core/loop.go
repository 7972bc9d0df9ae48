package core

import (
	"context"

	"dhtcode-go/bus"
	"dhtcode-go/errcode"
	"dhtcode-go/types"
	"dhtcode-go/x/timex"
)

const (
	eventQueueLen = 16
	pollQueueLen  = 4

	VerbPollStart = "poll_start"
	VerbPollStop  = "poll_stop"
	VerbRead      = "read"
)

type HAL struct {
	conn *bus.Connection
	res  Resources

	dev      map[string]Device  // devID -> device
	capIndex map[CapAddr]string // capability -> devID

	cfgSub  *bus.Subscription
	ctrlSub *bus.Subscription

	// Single-threaded publication of device events
	evCh chan Event

	pollCh chan PollReq
	poller *Poller
}

func NewHAL(conn *bus.Connection, reg ResourceRegistry) *HAL {
	h := &HAL{
		conn:     conn,
		res:      Resources{Reg: reg},
		dev:      map[string]Device{},
		capIndex: map[CapAddr]string{},
		evCh:     make(chan Event, eventQueueLen),
		pollCh:   make(chan PollReq, pollQueueLen),
	}
	h.res.Pub = h
	h.poller = NewPoller(h.pollCh)
	return h
}

// Run serves config, controls, polls and device events until ctx ends.
func (h *HAL) Run(ctx context.Context) {
	h.cfgSub = h.conn.Subscribe(topicConfigHAL())
	h.ctrlSub = h.conn.Subscribe(ctrlWildcard())
	defer h.conn.Unsubscribe(h.cfgSub)
	defer h.conn.Unsubscribe(h.ctrlSub)

	go h.poller.Run(ctx)

	h.pubHALState("idle", "awaiting_config")
	ready := false
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.pubHALState("stopped", "context_cancelled")
			return
		case msg := <-h.cfgSub.Channel():
			cfg, code := As[types.HALConfig](msg.Payload)
			if code != "" || msg.Payload == nil {
				println("[hal] ignoring config payload")
				continue
			}
			h.applyConfig(ctx, cfg)
			if !ready {
				ready = true
				h.pubHALState("ready", "")
			}
		case m := <-h.ctrlSub.Channel():
			if !ready {
				h.reply(m, errcode.HALNotReady)
				continue
			}
			h.handleControl(m)
		case req := <-h.pollCh:
			h.handlePoll(req)
		case ev := <-h.evCh:
			h.handleEvent(ev)
		}
	}
}

// applyConfig is additive: devices already built are left alone, pollers
// are upserted.
func (h *HAL) applyConfig(ctx context.Context, cfg types.HALConfig) {
	for i := range cfg.Devices {
		dc := cfg.Devices[i]
		if _, exists := h.dev[dc.ID]; exists {
			continue
		}
		b, ok := lookupBuilder(dc.Type)
		if !ok {
			println("[hal] no builder for type:", dc.Type, "id:", dc.ID)
			continue
		}
		dev, err := b.Build(ctx, BuilderInput{ID: dc.ID, Type: dc.Type, Params: dc.Params, Res: h.res})
		if err != nil {
			println("[hal] build failed for:", dc.ID, "err:", err.Error())
			continue
		}
		if err := dev.Init(ctx); err != nil {
			println("[hal] init failed for:", dc.ID, "err:", err.Error())
			_ = dev.Close()
			continue
		}
		h.dev[dev.ID()] = dev

		for _, cs := range dev.Capabilities() {
			a := CapAddr{Domain: cs.Domain, Kind: cs.Kind, Name: cs.Name}
			if a.Domain == "" {
				a.Domain = defaultDomainFor(cs.Kind)
			}
			if a.Name == "" {
				a.Name = dev.ID()
			}
			h.capIndex[a] = dev.ID()

			h.conn.Publish(h.conn.NewMessage(CapInfo(a), cs.Info, true))
			h.conn.Publish(h.conn.NewMessage(
				CapStatus(a),
				types.CapabilityStatus{Link: types.LinkDown, TS: timex.NowMs()},
				true,
			))
		}
	}

	for _, ps := range cfg.Pollers {
		a := CapAddr{Domain: ps.Domain, Kind: ps.Kind, Name: ps.Name}
		if _, ok := h.capIndex[a]; !ok {
			println("[hal] poller for unknown capability:", ps.Domain, string(ps.Kind), ps.Name)
			continue
		}
		verb := ps.Verb
		if verb == "" {
			verb = VerbRead
		}
		h.poller.Upsert(a, verb, timex.Ms(ps.IntervalMs), timex.Ms(ps.JitterMs), timex.Ms(ps.DelayMs))
	}
}

func (h *HAL) handleControl(msg *bus.Message) {
	a, verb, ok := addrFromCtrl(msg.Topic)
	if !ok {
		h.reply(msg, errcode.InvalidTopic)
		return
	}
	dev := h.dev[h.capIndex[a]]
	if dev == nil {
		h.reply(msg, errcode.UnknownCapability)
		return
	}

	switch verb {
	case VerbPollStart:
		p, code := As[types.PollStart](msg.Payload)
		if code != "" || p.IntervalMs == 0 {
			h.reply(msg, errcode.InvalidPayload)
			return
		}
		if p.Verb == "" {
			p.Verb = VerbRead
		}
		h.poller.Upsert(a, p.Verb, timex.Ms(p.IntervalMs), timex.Ms(p.JitterMs), 0)
		h.reply(msg, nil)
		return
	case VerbPollStop:
		p, code := As[types.PollStop](msg.Payload)
		if code != "" {
			h.reply(msg, errcode.InvalidPayload)
			return
		}
		if p.Verb == "" {
			p.Verb = VerbRead
		}
		h.poller.Stop(a, p.Verb)
		h.reply(msg, nil)
		return
	}

	res, err := dev.Control(a, verb, msg.Payload)
	if err != nil {
		h.reply(msg, err)
		return
	}
	if res.OK {
		h.reply(msg, nil)
		return
	}
	code := res.Error
	if code == "" {
		code = errcode.Busy
	}
	h.reply(msg, code)
}

// handlePoll issues a scheduled control. Busy means the previous read is
// still in flight and the tick is skipped.
func (h *HAL) handlePoll(req PollReq) {
	dev := h.dev[h.capIndex[req.Addr]]
	if dev == nil {
		h.poller.Stop(req.Addr, req.Verb)
		return
	}
	res, err := dev.Control(req.Addr, req.Verb, nil)
	if err != nil {
		println("[hal] poll failed:", req.Addr.Name, req.Verb, err.Error())
		return
	}
	if !res.OK && res.Error != errcode.Busy {
		println("[hal] poll rejected:", req.Addr.Name, req.Verb, string(res.Error))
	}
}

func (h *HAL) handleEvent(ev Event) {
	a := ev.Addr

	if ev.Err != "" {
		h.conn.Publish(h.conn.NewMessage(
			CapStatus(a),
			types.CapabilityStatus{Link: types.LinkDegraded, TS: ev.TSms, Error: ev.Err},
			true,
		))
		return
	}

	if ev.IsEvent {
		h.conn.Publish(h.conn.NewMessage(CapEvent(a, ev.EventTag), ev.Payload, false))
		return
	}
	h.conn.Publish(h.conn.NewMessage(CapValue(a), ev.Payload, true))
	h.conn.Publish(h.conn.NewMessage(
		CapStatus(a),
		types.CapabilityStatus{Link: types.LinkUp, TS: ev.TSms},
		true,
	))
}

func (h *HAL) closeAll() {
	for id, d := range h.dev {
		if err := d.Close(); err != nil {
			println("[hal] close failed for:", id, "err:", err.Error())
		}
	}
	h.dev = map[string]Device{}
	h.capIndex = map[CapAddr]string{}
}

func (h *HAL) pubHALState(level, status string) {
	h.conn.Publish(h.conn.NewMessage(
		topicHALState(),
		types.HALState{Level: level, Status: status, TS: timex.NowMs()},
		true,
	))
}

func defaultDomainFor(kind types.Kind) string {
	switch kind {
	case types.KindTemperature, types.KindHumidity:
		return "env"
	default:
		return "io"
	}
}

// ---- HAL as EventEmitter (enqueue to single publisher) ----

func (h *HAL) Emit(ev Event) bool {
	if ev.TSms == 0 {
		ev.TSms = timex.NowMs()
	}
	select {
	case h.evCh <- ev:
		return true
	default:
		return false
	}
}
