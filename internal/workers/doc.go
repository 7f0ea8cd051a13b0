/*
Package workers sizes worker pools from the CPUs actually available to the
process.

In a container with a CPU limit, runtime.NumCPU still reports the host's
cores while GOMAXPROCS (Go 1.19+) follows the quota:

	// 64 on a 64-core node, even with a 2-CPU limit
	runtime.NumCPU()

	// 2 under the same limit
	runtime.GOMAXPROCS(0)

The helpers scale GOMAXPROCS by the kind of work:

	workers.ForCPU(8)   // 1 per CPU
	workers.ForIO(16)   // 2 per CPU
	workers.ForMixed(8) // 1.5 per CPU

An operator setting (INDEX_WORKERS for the indexer) is passed as the
override to Count and takes precedence over the computed size:

	n := workers.Count(cfg.IndexWorkers, 2.0, 32)

Always pass a limit so a large machine cannot spawn an unbounded pool.
*/
package workers
