package agency

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/zen-systems/herald/pkg/bus"
	"github.com/zen-systems/herald/pkg/engine"
	"github.com/zen-systems/herald/pkg/metrics"
	"github.com/zen-systems/herald/pkg/score"
)

const defaultSubTaskLimit = 4

// DirectiveResult is the outcome of one dispatched directive.
type DirectiveResult struct {
	Directive string           `json:"directive"`
	Agency    string           `json:"agency"`
	Records   []*engine.Record `json:"records"`
}

// Succeeded reports whether every sub-task finished with a success outcome.
func (r *DirectiveResult) Succeeded() bool {
	for _, rec := range r.Records {
		if rec == nil || rec.FinalOutcome != engine.FinalSuccess {
			return false
		}
	}
	return len(r.Records) > 0
}

// Dispatcher routes a directive to a work-group and runs its sub-tasks on
// that group's coordinator. Coordinators are bound per work-group name at
// construction; there is no runtime module lookup.
type Dispatcher struct {
	router       *Router
	coordinators map[string]*engine.Coordinator
	messageBus   *bus.Bus
	subTaskLimit int
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithMessageBus posts a completion handoff message per directive.
func WithMessageBus(b *bus.Bus) DispatcherOption {
	return func(d *Dispatcher) {
		d.messageBus = b
	}
}

// WithSubTaskLimit bounds how many sub-tasks of one directive run at once.
// Each sub-task's own fallback chain stays strictly sequential.
func WithSubTaskLimit(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.subTaskLimit = n
		}
	}
}

// NewDispatcher binds a router to per-work-group coordinators.
func NewDispatcher(router *Router, coordinators map[string]*engine.Coordinator, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		router:       router,
		coordinators: coordinators,
		subTaskLimit: defaultSubTaskLimit,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch routes the directive, decomposes it into sub-tasks, and executes
// them on the selected work-group's coordinator. The result carries every
// record produced, including records for failed sub-tasks; the returned
// error is the first terminal execution error, if any.
func (d *Dispatcher) Dispatch(ctx context.Context, directive string, taskOpts ...score.TaskOption) (*DirectiveResult, error) {
	group, err := d.router.Route(directive)
	if err != nil {
		return nil, err
	}
	metrics.RecordRouted(group.Name)

	coordinator, ok := d.coordinators[group.Name]
	if !ok {
		return nil, fmt.Errorf("no coordinator bound for work-group %q", group.Name)
	}

	descriptions := Decompose(directive)
	result := &DirectiveResult{
		Directive: directive,
		Agency:    group.Name,
		Records:   make([]*engine.Record, len(descriptions)),
	}

	var mu sync.Mutex
	var firstErr error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.subTaskLimit)
	for i, desc := range descriptions {
		g.Go(func() error {
			task := score.NewTask(desc, taskOpts...)
			rec, execErr := coordinator.Execute(gctx, task)

			mu.Lock()
			result.Records[i] = rec
			if execErr != nil && firstErr == nil {
				firstErr = execErr
			}
			mu.Unlock()

			// Transient chains are already resolved inside Execute;
			// any error here is terminal for the sub-task but must
			// not cancel sibling sub-tasks.
			return nil
		})
	}
	_ = g.Wait()

	if d.messageBus != nil {
		payload := map[string]any{
			"directive": directive,
			"sub_tasks": len(descriptions),
			"succeeded": result.Succeeded(),
		}
		if _, busErr := d.messageBus.Send(group.Name, "orchestrator", "handoff", bus.PriorityMedium, payload); busErr != nil && firstErr == nil {
			firstErr = busErr
		}
	}

	return result, firstErr
}
