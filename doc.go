package redisutil

/*
redisutil is a set of cohesive helpers on top of [go-redis](https://github.com/redis/go-redis) for:

+ optimistic WATCH/MULTI/EXEC transactions with typed outcomes
+ getting and setting JSON values without hand-written (de)serialization

A transaction watches a set of keys, runs a body which reads current values and
queues writes onto a transactional pipeline, and attempts an atomic EXEC. If
another client changed a watched key between WATCH and EXEC, the whole attempt
is discarded and re-run against the fresh values. The body can instead abort
with a typed payload, in which case nothing is written.

The `redisutil` module is organized into the following packages:

* `txn`: the transaction runner. `txn.Run` owns the watch/retry/commit loop and
  guarantees that watches are released on every return path.
* `jsonval`: typed JSON accessors. `jsonval.Get` reads and decodes a value
  through a connection; `jsonval.Set` encodes a value and queues a SET onto a
  pipeline.
* `log`: leveled logging used by the library and the tools.
* `config`: TOML configuration for the benchmark tool.
* `cmd/txbench`: a contention benchmark running concurrent increment
  transactions against a live Redis, reporting latency percentiles.
* `examples/counter`: a minimal runnable demo of the transaction and JSON
  helpers.
*/
