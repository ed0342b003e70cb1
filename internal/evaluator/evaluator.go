// Package evaluator executes snippets in isolated JavaScript sandboxes.
//
// Every evaluation gets a fresh goja runtime with its own global scope, so no
// state leaks between snippets. Console output is captured, never forwarded.
// Execution time is bounded: the runtime is interrupted cooperatively when
// the configured timeout elapses or the run-level context is canceled.
// Uncaught errors never propagate out of Evaluate; they are captured in the
// result as an error variant.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/hollis/snipcheck/internal/models"
	"github.com/hollis/snipcheck/internal/value"
)

// DefaultTimeout bounds a single snippet evaluation unless overridden.
const DefaultTimeout = 2 * time.Second

// Evaluator runs snippets. It holds no per-snippet state and is safe for
// concurrent use: each Evaluate call builds its own runtime.
type Evaluator struct {
	timeout time.Duration
}

// New creates an Evaluator with the given per-snippet timeout.
// A non-positive timeout selects DefaultTimeout.
func New(timeout time.Duration) *Evaluator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Evaluator{timeout: timeout}
}

// Timeout returns the configured per-snippet execution bound.
func (e *Evaluator) Timeout() time.Duration {
	return e.timeout
}

// Evaluate runs the snippet source and returns its outcome. The result is
// the program's completion value, or an error variant for syntax errors,
// uncaught exceptions, timeouts and cancellation.
func (e *Evaluator) Evaluate(ctx context.Context, snippet models.Snippet) (result models.EvaluationResult) {
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
		// The sandbox must never crash the run: a panic out of the runtime
		// (e.g. from a misbehaving host call) becomes an error result.
		if r := recover(); r != nil {
			result = models.EvaluationResult{
				Kind:         models.ResultError,
				ErrorKind:    "Error",
				ErrorMessage: fmt.Sprintf("evaluation panic: %v", r),
				Duration:     time.Since(start),
			}
		}
	}()

	program, err := goja.Compile(snippet.Ref(), snippet.Source, false)
	if err != nil {
		return models.EvaluationResult{
			Kind:         models.ResultError,
			ErrorKind:    models.ErrorKindSyntax,
			ErrorMessage: err.Error(),
		}
	}

	vm := goja.New()
	// Bound recursion so runaway snippets surface as a captured RangeError
	// instead of exhausting the host stack.
	vm.SetMaxCallStackSize(16384)
	console := newConsoleCapture()
	if err := console.install(vm); err != nil {
		return models.EvaluationResult{
			Kind:         models.ResultError,
			ErrorKind:    "Error",
			ErrorMessage: fmt.Sprintf("failed to install console: %v", err),
		}
	}

	evalCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	// Cooperative cancellation: the watcher signals the runtime to stop at
	// its next interrupt check instead of killing anything.
	watcherDone := make(chan struct{})
	go func() {
		select {
		case <-evalCtx.Done():
			vm.Interrupt(evalCtx.Err())
		case <-watcherDone:
		}
	}()

	completion, runErr := vm.RunProgram(program)
	close(watcherDone)

	if runErr != nil {
		res := classifyRunError(runErr, evalCtx)
		res.ConsoleLines = console.lines()
		return res
	}

	return models.EvaluationResult{
		Kind:         models.ResultValue,
		Value:        convertValue(completion),
		ConsoleLines: console.lines(),
	}
}

// classifyRunError maps a goja runtime error to an error result.
func classifyRunError(runErr error, evalCtx context.Context) models.EvaluationResult {
	var stackErr *goja.StackOverflowError
	if errors.As(runErr, &stackErr) {
		return models.EvaluationResult{
			Kind:         models.ResultError,
			ErrorKind:    "RangeError",
			ErrorMessage: "Maximum call stack size exceeded",
		}
	}

	var interrupted *goja.InterruptedError
	if errors.As(runErr, &interrupted) {
		kind := models.ErrorKindTimeout
		if !errors.Is(evalCtx.Err(), context.DeadlineExceeded) {
			kind = models.ErrorKindCanceled
		}
		return models.EvaluationResult{
			Kind:         models.ResultError,
			ErrorKind:    kind,
			ErrorMessage: "execution interrupted",
		}
	}

	var exception *goja.Exception
	if errors.As(runErr, &exception) {
		kind, message := describeException(exception.Value())
		return models.EvaluationResult{
			Kind:         models.ResultError,
			ErrorKind:    kind,
			ErrorMessage: message,
		}
	}

	return models.EvaluationResult{
		Kind:         models.ResultError,
		ErrorKind:    "Error",
		ErrorMessage: runErr.Error(),
	}
}

// describeException extracts the error name and message from a thrown value.
// Thrown non-Error values (e.g. `throw 'oops'`) are reported as a generic
// Error with the value's string form as the message.
func describeException(thrown goja.Value) (kind, message string) {
	kind = "Error"
	if thrown == nil {
		return kind, ""
	}

	if obj, ok := thrown.(*goja.Object); ok {
		if name := obj.Get("name"); name != nil && !goja.IsUndefined(name) {
			kind = name.String()
		}
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
			return kind, msg.String()
		}
		return kind, ""
	}

	return kind, thrown.String()
}

// convertValue maps a goja value to the tagged value model.
func convertValue(v goja.Value) value.Value {
	if v == nil || goja.IsUndefined(v) {
		return value.NewUndefined()
	}
	if goja.IsNull(v) {
		return value.NewNull()
	}
	return value.FromGo(v.Export())
}
