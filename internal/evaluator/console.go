package evaluator

import (
	"strings"
	"sync"

	"github.com/dop251/goja"

	"github.com/hollis/snipcheck/internal/value"
)

// consoleCapture collects console output from sandboxed code. The output is
// recorded for comparison against "// logs:" annotations but never forwarded
// to the process's own streams.
type consoleCapture struct {
	mu       sync.Mutex
	captured []string
}

func newConsoleCapture() *consoleCapture {
	return &consoleCapture{}
}

// install registers a console object on the runtime. log, info, warn, error
// and debug all record to the same capture buffer, one entry per call.
func (c *consoleCapture) install(vm *goja.Runtime) error {
	console := vm.NewObject()
	for _, method := range []string{"log", "info", "warn", "error", "debug"} {
		if err := console.Set(method, c.logFunc()); err != nil {
			return err
		}
	}
	return vm.Set("console", console)
}

func (c *consoleCapture) logFunc() func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = formatConsoleArg(arg)
		}

		c.mu.Lock()
		c.captured = append(c.captured, strings.Join(parts, " "))
		c.mu.Unlock()

		return goja.Undefined()
	}
}

// lines returns the captured output in call order.
func (c *consoleCapture) lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.captured...)
}

// formatConsoleArg renders one console argument the way a developer console
// would: bare strings stay unquoted, composite values use the canonical
// value rendering.
func formatConsoleArg(arg goja.Value) string {
	if arg == nil || goja.IsUndefined(arg) {
		return "undefined"
	}
	if goja.IsNull(arg) {
		return "null"
	}

	exported := arg.Export()
	if s, ok := exported.(string); ok {
		return s
	}
	return value.FromGo(exported).String()
}
