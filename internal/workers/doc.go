/*
Package workers sizes the thumbnail generation pool.

Decode, resize and PNG encode are CPU-bound, so the pool runs one worker per
schedulable CPU. runtime.GOMAXPROCS is used rather than runtime.NumCPU so
that container CPU limits are respected (Go 1.19+ sets GOMAXPROCS from the
cgroup quota).

	numWorkers := workers.ForCPU(16) // at most 16

An explicit count from configuration takes precedence:

	numWorkers := workers.Resolve(cfg.ThumbnailWorkers, 16)

# Environment Variable Override

THUMBNAIL_WORKERS overrides the automatic calculation. The limit still
applies to the override.
*/
package workers
