package viewer

import (
	"context"
	"math/rand"

	"go.uber.org/zap"

	"map-viewer/internal/layer"
	"map-viewer/internal/loader"
	"map-viewer/internal/metrics"
	"map-viewer/pkg/maperr"
)

// completionBuffer bounds the finished loads waiting to be drained.
const completionBuffer = 16

// OpenFunc decodes the file at path into a layer.
type OpenFunc func(ctx context.Context, path string, opts loader.Options) (layer.Layer, error)

// Completion is the result of one background load.
type Completion struct {
	Path string
	// Layer is nil when the load failed outright. It may be set together
	// with Err when only part of the file could be used.
	Layer layer.Layer
	// Replaces is the layer a reload swaps out.
	Replaces layer.Layer
	Err      error
}

// Load decodes path on a background goroutine. The result is applied by the
// next DrainCompletions call; Ready fires when one is waiting.
func (c *Canvas) Load(path string) error {
	return c.start(path, nil)
}

// Reload decodes path in the background and swaps it in for old at the same
// stack position. If old has gone by then the new layer is added on top.
func (c *Canvas) Reload(old layer.Layer, path string) error {
	if old == nil {
		return &maperr.InvalidStateError{Op: "reload", Reason: "no layer to replace"}
	}
	return c.start(path, old)
}

func (c *Canvas) start(path string, old layer.Layer) error {
	if c.closed {
		return &maperr.InvalidStateError{Op: "load", Reason: "canvas closed"}
	}
	opts := c.loadOpts
	opts.Projection = c.t.Projection()
	if opts.Rand != nil {
		// math/rand sources are not safe for concurrent use.
		opts.Rand = rand.New(rand.NewSource(opts.Rand.Int63()))
	}

	c.logger.Info("loading layer", zap.String("path", path))
	c.loads.Add(1)
	go c.work(path, old, opts)
	return nil
}

// work runs on its own goroutine. It only touches the completion channel,
// the done channel, the logger and metrics.
func (c *Canvas) work(path string, old layer.Layer, opts loader.Options) {
	defer c.loads.Done()

	l, err := c.open(context.Background(), path, opts)
	done := Completion{Path: path, Layer: l, Replaces: old, Err: err}

	select {
	case <-c.done:
		c.stale(done)
		return
	default:
	}
	select {
	case c.completions <- done:
	case <-c.done:
		c.stale(done)
	}
}

func (c *Canvas) stale(done Completion) {
	c.metrics.StaleCompletion()
	c.logger.Debug("dropping load for closed canvas", zap.String("path", done.Path))
}

// Ready returns the channel finished loads are queued on. Receive from it
// only to learn that DrainCompletions has work; use DrainCompletions to
// apply results.
func (c *Canvas) Ready() <-chan Completion {
	return c.completions
}

// Apply stacks the layer of one completion. Callers that receive from Ready
// themselves pass the result here.
func (c *Canvas) Apply(done Completion) Completion {
	if c.closed {
		c.stale(done)
		return done
	}
	if done.Layer == nil {
		c.metrics.LayerLoaded(metrics.LoadFailed)
		c.logger.Warn("layer load failed", zap.String("path", done.Path), zap.Error(done.Err))
		return done
	}
	if done.Err != nil {
		c.logger.Warn("layer loaded with problems", zap.String("path", done.Path), zap.Error(done.Err))
	}

	var err error
	if done.Replaces != nil && c.stack.Index(done.Replaces) >= 0 {
		c.prepare(done.Layer)
		err = c.stack.Replace(done.Replaces, done.Layer)
	} else {
		err = c.AddLayer(done.Layer)
	}
	if err != nil {
		c.metrics.LayerLoaded(metrics.LoadFailed)
		c.logger.Warn("layer not added", zap.String("path", done.Path), zap.Error(err))
		done.Layer = nil
		done.Err = err
		return done
	}

	c.metrics.LayerLoaded(metrics.LoadOK)
	c.logger.Info("layer loaded", zap.String("path", done.Path), zap.String("layer", done.Layer.Name()))
	return done
}

// DrainCompletions applies every finished load without blocking and returns
// the results in completion order.
func (c *Canvas) DrainCompletions() []Completion {
	var out []Completion
	for {
		select {
		case done := <-c.completions:
			out = append(out, c.Apply(done))
		default:
			return out
		}
	}
}

// WaitLoads blocks until every started load has either queued its result or
// dropped it.
func (c *Canvas) WaitLoads() {
	c.loads.Wait()
}

// dropPending discards results queued before Close.
func (c *Canvas) dropPending() {
	for {
		select {
		case done := <-c.completions:
			c.stale(done)
		default:
			return
		}
	}
}
