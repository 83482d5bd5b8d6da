package loadgen

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
)

var (
	// ErrNoTasks is returned when a picker is built from an empty task list.
	ErrNoTasks = errors.New("loadgen: no tasks")
	// ErrInvalidWeight is returned for tasks with a weight below 1.
	ErrInvalidWeight = errors.New("loadgen: task weight must be positive")
)

// Task is one kind of request a simulated user can make.
type Task struct {
	Name   string
	Path   string
	Weight int
}

// DefaultTasks mirrors the traffic mix used against the demo service.
// /error_test keeps its own name; it is not folded into /random_sleep.
var DefaultTasks = []Task{
	{Name: "/home", Path: "/", Weight: 10},
	{Name: "/io_task", Path: "/io_task", Weight: 5},
	{Name: "/cpu_task", Path: "/cpu_task", Weight: 5},
	{Name: "/random_sleep", Path: "/random_sleep", Weight: 3},
	{Name: "/random_status", Path: "/random_status", Weight: 10},
	{Name: "/chain", Path: "/chain", Weight: 3},
	{Name: "/error_test", Path: "/error_test", Weight: 1},
}

// DefaultPaths returns the request path of every default task.
func DefaultPaths() []string {
	paths := make([]string, len(DefaultTasks))
	for i, t := range DefaultTasks {
		paths[i] = t.Path
	}
	return paths
}

// Picker chooses tasks at random in proportion to their weights. It is
// safe for concurrent use.
type Picker struct {
	tasks      []Task
	cumulative []int
	total      int
	intN       func(n int) int
}

// NewPicker validates tasks and prepares the cumulative weight table.
func NewPicker(tasks []Task) (*Picker, error) {
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}

	p := &Picker{
		tasks:      append([]Task(nil), tasks...),
		cumulative: make([]int, len(tasks)),
		intN:       rand.IntN,
	}
	for i, t := range tasks {
		if t.Weight < 1 {
			return nil, fmt.Errorf("%w: %s has weight %d", ErrInvalidWeight, t.Name, t.Weight)
		}
		p.total += t.Weight
		p.cumulative[i] = p.total
	}
	return p, nil
}

// Pick returns a task; task i is chosen with probability weight_i / total.
func (p *Picker) Pick() Task {
	n := p.intN(p.total)
	// first index whose cumulative weight exceeds n
	i := sort.SearchInts(p.cumulative, n+1)
	return p.tasks[i]
}

// Tasks returns a copy of the picker's tasks.
func (p *Picker) Tasks() []Task {
	return append([]Task(nil), p.tasks...)
}
