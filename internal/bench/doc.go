// Package bench is the jet-finding benchmark harness.
//
// Events are decoded once into an EventStore. A Runner then makes repeated
// timed passes over the store, clustering every event with an Invoker and
// reducing each clustering to the final jets with a Selector. The per-trial
// timings are reduced to per-event statistics by Aggregate.
//
// Nothing in a timed pass is cached between events or trials: every event is
// clustered from scratch on every trial.
package bench
