package goegg

import (
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type StopReason int

const (
	STOP_NONE StopReason = iota
	STOP_SATURATED
	STOP_ITERATION_LIMIT
	STOP_NODE_LIMIT
	STOP_TIME_LIMIT
	STOP_OTHER
)

func (r StopReason) String() string {
	switch r {
	case STOP_NONE:
		return "Running"
	case STOP_SATURATED:
		return "Saturated"
	case STOP_ITERATION_LIMIT:
		return "IterationLimit"
	case STOP_NODE_LIMIT:
		return "NodeLimit"
	case STOP_TIME_LIMIT:
		return "TimeLimit"
	case STOP_OTHER:
		return "Other"
	}
	return "?"
}

// Iteration holds the statistics of one search/apply/rebuild round.
type Iteration struct {
	Index       int
	Classes     int
	Nodes       int
	Matches     int
	Applied     map[string]int
	Unions      int
	SearchTime  time.Duration
	ApplyTime   time.Duration
	RebuildTime time.Duration
	TotalTime   time.Duration
}

func (it Iteration) TotalApplied() int {
	n := 0
	for _, v := range it.Applied {
		n += v
	}
	return n
}

// Hook runs before every iteration. A non-nil error stops the runner with
// STOP_OTHER.
type Hook func(r *Runner) error

// StopHook runs once after the runner stopped, with StopReason set and the
// roots canonical.
type StopHook func(r *Runner)

// Runner drives equality saturation over an e-graph.
type Runner struct {
	EGraph      *EGraph
	Roots       []ClassId
	Iterations  []Iteration
	StopReason  StopReason
	StopMessage string

	iterLimit int
	nodeLimit int
	timeLimit time.Duration
	scheduler Scheduler
	workers   int
	hooks     []Hook
	stopHooks []StopHook
	start     time.Time
}

func NewRunner() *Runner {
	return &Runner{
		EGraph:     NewEGraph(),
		Roots:      make([]ClassId, 0),
		Iterations: make([]Iteration, 0),
		iterLimit:  30,
		nodeLimit:  10000,
		timeLimit:  5 * time.Second,
		scheduler:  SimpleScheduler{},
		workers:    1,
	}
}

func (r *Runner) WithEGraph(eg *EGraph) *Runner {
	r.EGraph = eg
	return r
}

// WithExpr adds e to the e-graph and records its class as a root.
func (r *Runner) WithExpr(e *Expr) *Runner {
	r.Roots = append(r.Roots, r.EGraph.AddExpr(e))
	return r
}

func (r *Runner) WithIterLimit(n int) *Runner {
	r.iterLimit = n
	return r
}

func (r *Runner) WithNodeLimit(n int) *Runner {
	r.nodeLimit = n
	return r
}

// WithTimeLimit sets the wall time budget; zero disables it.
func (r *Runner) WithTimeLimit(d time.Duration) *Runner {
	r.timeLimit = d
	return r
}

func (r *Runner) WithScheduler(s Scheduler) *Runner {
	r.scheduler = s
	return r
}

// WithSearchWorkers searches up to n rules concurrently. Application is
// always sequential.
func (r *Runner) WithSearchWorkers(n int) *Runner {
	if n < 1 {
		n = 1
	}
	r.workers = n
	return r
}

func (r *Runner) WithHook(h Hook) *Runner {
	r.hooks = append(r.hooks, h)
	return r
}

func (r *Runner) WithStopHook(h StopHook) *Runner {
	r.stopHooks = append(r.stopHooks, h)
	return r
}

// Run saturates the e-graph with rules until a fixpoint or a limit.
func (r *Runner) Run(rules []*Rewrite) *Runner {
	for _, rw := range rules {
		rw.pattern()
	}
	r.EGraph.Rebuild()
	r.start = time.Now()

	for r.StopReason == STOP_NONE {
		if reason := r.checkLimits(); reason != STOP_NONE {
			r.StopReason = reason
			break
		}
		for _, h := range r.hooks {
			if err := h(r); err != nil {
				r.StopReason = STOP_OTHER
				r.StopMessage = err.Error()
				break
			}
		}
		if r.StopReason != STOP_NONE {
			break
		}
		if r.runOne(rules) {
			r.StopReason = STOP_SATURATED
		}
	}

	for i, id := range r.Roots {
		r.Roots[i] = r.EGraph.Find(id)
	}
	for _, h := range r.stopHooks {
		h(r)
	}
	log.Infof("stopped after %d iterations: %s", len(r.Iterations), r.StopReason)
	return r
}

func (r *Runner) checkLimits() StopReason {
	if len(r.Iterations) >= r.iterLimit {
		return STOP_ITERATION_LIMIT
	}
	if r.EGraph.NumNodes() > r.nodeLimit {
		return STOP_NODE_LIMIT
	}
	if r.timeLimit > 0 && time.Since(r.start) > r.timeLimit {
		return STOP_TIME_LIMIT
	}
	return STOP_NONE
}

func (r *Runner) search(iteration int, rules []*Rewrite) [][]SearchMatches {
	res := make([][]SearchMatches, len(rules))
	if r.workers <= 1 {
		for i, rw := range rules {
			res[i] = r.scheduler.SearchRewrite(iteration, r.EGraph, rw)
		}
		return res
	}

	g := errgroup.Group{}
	g.SetLimit(r.workers)
	for i, rw := range rules {
		i, rw := i, rw
		g.Go(func() error {
			res[i] = r.scheduler.SearchRewrite(iteration, r.EGraph, rw)
			return nil
		})
	}
	_ = g.Wait()
	return res
}

// runOne performs one round and reports whether it changed nothing.
func (r *Runner) runOne(rules []*Rewrite) bool {
	eg := r.EGraph
	index := len(r.Iterations)
	start := time.Now()
	nodesBefore := eg.NumNodes()
	classesBefore := eg.NumClasses()
	unionsBefore := eg.Stats.Unions

	matches := r.search(index, rules)
	searchTime := time.Since(start)

	applyStart := time.Now()
	applied := make(map[string]int)
	total := 0
	for i, rw := range rules {
		for _, m := range matches[i] {
			total += len(m.Substs)
		}
		n, full := rw.applyUntil(eg, matches[i], r.nodeLimit)
		if n > 0 {
			applied[rw.Name] += n
		}
		if full {
			log.Debugf("node limit reached while applying %q", rw.Name)
			break
		}
	}
	applyTime := time.Since(applyStart)

	rebuildStart := time.Now()
	eg.Rebuild()
	rebuildTime := time.Since(rebuildStart)

	it := Iteration{
		Index:       index,
		Classes:     eg.NumClasses(),
		Nodes:       eg.NumNodes(),
		Matches:     total,
		Applied:     applied,
		Unions:      int(eg.Stats.Unions - unionsBefore),
		SearchTime:  searchTime,
		ApplyTime:   applyTime,
		RebuildTime: rebuildTime,
		TotalTime:   time.Since(start),
	}
	r.Iterations = append(r.Iterations, it)
	log.Debugf("iteration %d: %d classes, %d nodes, %d matches, %d unions (search %s, apply %s, rebuild %s)",
		it.Index, it.Classes, it.Nodes, it.Matches, it.Unions, searchTime, applyTime, rebuildTime)

	unchanged := it.Unions == 0 && it.Nodes == nodesBefore && it.Classes == classesBefore
	return unchanged && r.scheduler.CanStopSaturated(index)
}

/*
 *   Report
 */

type Report struct {
	Iterations  int
	StopReason  StopReason
	StopMessage string
	Nodes       int
	Classes     int
	MemoSize    int
	Rebuilds    int
	TotalTime   time.Duration
	SearchTime  time.Duration
	ApplyTime   time.Duration
	RebuildTime time.Duration
	PerRound    []Iteration
}

func (r *Runner) Report() Report {
	rep := Report{
		Iterations:  len(r.Iterations),
		StopReason:  r.StopReason,
		StopMessage: r.StopMessage,
		Nodes:       r.EGraph.NumNodes(),
		Classes:     r.EGraph.NumClasses(),
		MemoSize:    r.EGraph.memoSize(),
		Rebuilds:    int(r.EGraph.Stats.Rebuilds),
		PerRound:    r.Iterations,
	}
	for _, it := range r.Iterations {
		rep.SearchTime += it.SearchTime
		rep.ApplyTime += it.ApplyTime
		rep.RebuildTime += it.RebuildTime
		rep.TotalTime += it.TotalTime
	}
	return rep
}

func share(part, total time.Duration) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

func (rep Report) String() string {
	b := strings.Builder{}
	b.WriteString("Runner report\n")
	b.WriteString("=============\n")
	if rep.StopMessage != "" {
		b.WriteString(fmt.Sprintf("  Stop reason: %s (%s)\n", rep.StopReason, rep.StopMessage))
	} else {
		b.WriteString(fmt.Sprintf("  Stop reason: %s\n", rep.StopReason))
	}
	b.WriteString(fmt.Sprintf("  Iterations: %d\n", rep.Iterations))
	b.WriteString(fmt.Sprintf("  Egraph size: %d nodes, %d classes, %d memo\n", rep.Nodes, rep.Classes, rep.MemoSize))
	b.WriteString(fmt.Sprintf("  Rebuilds: %d\n", rep.Rebuilds))
	b.WriteString(fmt.Sprintf("  Total time: %s\n", rep.TotalTime))
	b.WriteString(fmt.Sprintf("    Search:  (%.2f) %s\n", share(rep.SearchTime, rep.TotalTime), rep.SearchTime))
	b.WriteString(fmt.Sprintf("    Apply:   (%.2f) %s\n", share(rep.ApplyTime, rep.TotalTime), rep.ApplyTime))
	b.WriteString(fmt.Sprintf("    Rebuild: (%.2f) %s\n", share(rep.RebuildTime, rep.TotalTime), rep.RebuildTime))
	return b.String()
}
