package omniture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

type call struct {
	api    string
	method string
	params map[string]any
}

// fakeRequester records calls and answers from a per-method handler.
type fakeRequester struct {
	mu       sync.Mutex
	calls    []call
	handlers map[string]func(params map[string]any) (string, error)
}

func newFakeRequester() *fakeRequester {
	return &fakeRequester{handlers: make(map[string]func(map[string]any) (string, error))}
}

// on registers a handler for "Api.Method".
func (f *fakeRequester) on(name string, fn func(params map[string]any) (string, error)) *fakeRequester {
	f.handlers[name] = fn
	return f
}

// reply registers a fixed body for "Api.Method".
func (f *fakeRequester) reply(name, body string) *fakeRequester {
	return f.on(name, func(map[string]any) (string, error) { return body, nil })
}

// sequence answers "Api.Method" with bodies in order, repeating the last one.
func (f *fakeRequester) sequence(name string, bodies ...string) *fakeRequester {
	i := 0
	return f.on(name, func(map[string]any) (string, error) {
		body := bodies[i]
		if i < len(bodies)-1 {
			i++
		}
		return body, nil
	})
}

func (f *fakeRequester) Request(_ context.Context, api, method string, params map[string]any) (gjson.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{api: api, method: method, params: params})
	handler, ok := f.handlers[api+"."+method]
	f.mu.Unlock()

	if !ok {
		return gjson.Result{}, fmt.Errorf("unexpected call %s.%s", api, method)
	}
	body, err := handler(params)
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.Parse(body), nil
}

func (f *fakeRequester) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.api+"."+c.method)
	}
	return out
}

func (f *fakeRequester) count(name string) int {
	n := 0
	for _, m := range f.methods() {
		if m == name {
			n++
		}
	}
	return n
}

func (f *fakeRequester) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

const (
	metricsBody = `[{"rsid":"rs1","available_metrics":[
		{"display_name":"Page Views","metric_name":"pageviews"},
		{"display_name":"Visits","metric_name":"visits"}]}]`
	segmentsBody = `[{"rsid":"rs1","sc_segments":[
		{"name":"Visits from Search","id":"seg1"},
		{"name":"Mobile","id":"seg2"}]}]`
)

// noSleep counts pauses without waiting.
type noSleep struct {
	mu    sync.Mutex
	count int
}

func (n *noSleep) sleep(ctx context.Context, d time.Duration) error {
	n.mu.Lock()
	n.count++
	n.mu.Unlock()
	return ctx.Err()
}
