package broker

import (
	"fmt"

	"tradeengine/bar"
	"tradeengine/model"
)

// SubscribeBar attaches receiver to sym's bar generator, creating it
// lazily on first use and subscribing it to the Market Router as a tick
// receiver (§4.6, "one Bar Aggregator per symbol, lazily created... it is
// itself a tick receiver against the Market Router"). cfg is only
// consulted on first creation — later subscribers join the generator an
// earlier subscriber already configured, matching the one-generator-per-
// symbol model; there is no per-receiver bucket discipline.
func (b *Broker) SubscribeBar(sym model.Symbol, cfg bar.Config, receiver bar.Receiver) error {
	gen, ok := b.generators[sym]
	if !ok {
		inst, known := b.coord.Instrument(sym)
		if !known {
			return fmt.Errorf("broker: unknown instrument %s", sym)
		}
		gen = bar.NewGenerator(sym, inst.PriceTick, cfg)
		b.generators[sym] = gen
		if err := b.router.Subscribe([]model.Symbol{sym}, gen); err != nil {
			delete(b.generators, sym)
			return err
		}
	}
	gen.AddReceiver(receiver)
	return nil
}

// UnsubscribeBar detaches receiver from sym's bar generator. Once the
// generator's receiver set empties it is unsubscribed from the Market
// Router and garbage-collected (§4.6).
func (b *Broker) UnsubscribeBar(sym model.Symbol, receiver bar.Receiver) error {
	gen, ok := b.generators[sym]
	if !ok {
		return nil
	}
	gen.RemoveReceiver(receiver)
	if gen.Working() {
		return nil
	}
	delete(b.generators, sym)
	return b.router.Unsubscribe([]model.Symbol{sym}, gen)
}
