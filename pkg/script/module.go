package script

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dop251/goja"
	sdkerrors "github.com/richhh7g/node-runner/pkg/errors"
	"go.uber.org/zap"
)

// module is a script unit instance: one VM, one constructed object. Calls are
// serialized with a mutex because a goja runtime is not safe for concurrent
// use.
type module struct {
	path      string
	vm        *goja.Runtime
	self      *goja.Object
	configure goja.Callable
	run       goja.Callable
	mu        sync.Mutex
}

// newModule evaluates prog in a fresh VM, instantiates the default export and
// verifies the configure/run contract.
func newModule(path string, prog *goja.Program, logger *zap.Logger) (*module, error) {
	vm := goja.New()

	exports := vm.NewObject()
	moduleObj := vm.NewObject()
	if err := moduleObj.Set("exports", exports); err != nil {
		return nil, fmt.Errorf("prepare module scope for %s: %w", path, err)
	}
	if err := vm.Set("module", moduleObj); err != nil {
		return nil, fmt.Errorf("prepare module scope for %s: %w", path, err)
	}
	if err := vm.Set("exports", exports); err != nil {
		return nil, fmt.Errorf("prepare module scope for %s: %w", path, err)
	}
	if err := installConsole(vm, logger.With(zap.String("script", path))); err != nil {
		return nil, fmt.Errorf("install console for %s: %w", path, err)
	}

	if _, err := vm.RunProgram(prog); err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", path, err)
	}

	// The script may have reassigned module.exports, so read it back rather
	// than using the object we seeded.
	ctor := defaultExport(vm, moduleObj.Get("exports"))
	if ctor == nil {
		return nil, sdkerrors.NewMissingDefaultExport(path)
	}

	self, err := vm.New(ctor)
	if err != nil {
		return nil, fmt.Errorf("instantiate default export of %s: %w", path, err)
	}

	configure, ok := goja.AssertFunction(self.Get("configure"))
	if !ok {
		return nil, sdkerrors.NewInvalidRunnerShape(path, "configure")
	}
	run, ok := goja.AssertFunction(self.Get("run"))
	if !ok {
		return nil, sdkerrors.NewInvalidRunnerShape(path, "run")
	}

	return &module{
		path:      path,
		vm:        vm,
		self:      self,
		configure: configure,
		run:       run,
	}, nil
}

// defaultExport picks the constructor from the module's exports: the default
// property when present, otherwise the exports value itself when the script
// assigned a function directly to module.exports.
func defaultExport(vm *goja.Runtime, exportsVal goja.Value) goja.Value {
	if exportsVal == nil || goja.IsUndefined(exportsVal) || goja.IsNull(exportsVal) {
		return nil
	}

	if obj := exportsVal.ToObject(vm); obj != nil {
		if def := obj.Get("default"); def != nil && !goja.IsUndefined(def) && !goja.IsNull(def) {
			return def
		}
	}

	if _, ok := goja.AssertFunction(exportsVal); ok {
		return exportsVal
	}
	return nil
}

// Configure runs the script's configure method.
func (m *module) Configure(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.call(ctx, m.configure)
	return err
}

// Run runs the script's run method with args and exports the result to Go.
func (m *module) Run(ctx context.Context, args []string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if args == nil {
		args = []string{}
	}
	return m.call(ctx, m.run, m.vm.ToValue(args))
}

// call invokes fn with the instance as this, interrupting the VM if ctx ends
// while the script is running. Promise results are unwrapped; the runtime has
// no event loop, so a promise still pending when the call returns is an error.
func (m *module) call(ctx context.Context, fn goja.Callable, args ...goja.Value) (any, error) {
	stop := make(chan struct{})
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		select {
		case <-ctx.Done():
			m.vm.Interrupt(ctx.Err())
		case <-stop:
		}
	}()

	value, err := fn(m.self, args...)

	close(stop)
	<-watcherDone
	m.vm.ClearInterrupt()

	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) && ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", m.path, ctx.Err())
		}
		var exc *goja.Exception
		if errors.As(err, &exc) {
			return nil, fmt.Errorf("%s: %w", m.path, exc)
		}
		return nil, fmt.Errorf("%s: %w", m.path, err)
	}

	if value == nil {
		return nil, nil
	}

	exported := value.Export()
	if p, ok := exported.(*goja.Promise); ok {
		switch p.State() {
		case goja.PromiseStateFulfilled:
			if res := p.Result(); res != nil {
				return res.Export(), nil
			}
			return nil, nil
		case goja.PromiseStateRejected:
			return nil, fmt.Errorf("%s: promise rejected: %s", m.path, rejectionText(p.Result()))
		default:
			return nil, fmt.Errorf("%s: asynchronous result never settled: the runtime has no event loop", m.path)
		}
	}

	return exported, nil
}

func rejectionText(v goja.Value) string {
	if v == nil {
		return "unknown reason"
	}
	return v.String()
}

// installConsole binds console.log and friends to the structured logger so
// script output lands in the same place as everything else.
func installConsole(vm *goja.Runtime, logger *zap.Logger) error {
	console := vm.NewObject()

	bind := func(sink func(msg string, fields ...zap.Field)) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			args := make([]any, len(call.Arguments))
			for i, arg := range call.Arguments {
				args[i] = arg.Export()
			}
			sink(strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
			return goja.Undefined()
		}
	}

	if err := console.Set("log", bind(logger.Info)); err != nil {
		return err
	}
	if err := console.Set("info", bind(logger.Info)); err != nil {
		return err
	}
	if err := console.Set("warn", bind(logger.Warn)); err != nil {
		return err
	}
	if err := console.Set("error", bind(logger.Error)); err != nil {
		return err
	}
	if err := console.Set("debug", bind(logger.Debug)); err != nil {
		return err
	}

	return vm.Set("console", console)
}
