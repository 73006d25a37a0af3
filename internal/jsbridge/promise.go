//go:build js && wasm

// Package jsbridge backs the push interfaces onto the browser through
// syscall/js. Everything here only builds for GOOS=js GOARCH=wasm.
package jsbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"syscall/js"
)

// Await blocks until p settles. It must not be called from a JS callback
// directly; callbacks hand work to a goroutine first.
func Await(ctx context.Context, p js.Value) (js.Value, error) {
	type result struct {
		v   js.Value
		err error
	}
	ch := make(chan result, 1)

	var onResolve, onReject js.Func
	onResolve = js.FuncOf(func(_ js.Value, args []js.Value) any {
		v := js.Undefined()
		if len(args) > 0 {
			v = args[0]
		}
		ch <- result{v: v}
		return nil
	})
	onReject = js.FuncOf(func(_ js.Value, args []js.Value) any {
		reason := js.Undefined()
		if len(args) > 0 {
			reason = args[0]
		}
		ch <- result{err: jsError(reason)}
		return nil
	})
	release := func() {
		onResolve.Release()
		onReject.Release()
	}
	p.Call("then", onResolve, onReject)

	select {
	case r := <-ch:
		release()
		return r.v, r.err
	case <-ctx.Done():
		// The callbacks stay alive until the promise settles.
		go func() {
			<-ch
			release()
		}()
		return js.Undefined(), ctx.Err()
	}
}

// Promise runs fn on a goroutine and returns a JS promise for its outcome,
// suitable for event.waitUntil.
func Promise(fn func() error) js.Value {
	var executor js.Func
	executor = js.FuncOf(func(_ js.Value, args []js.Value) any {
		resolve, reject := args[0], args[1]
		go func() {
			defer executor.Release()
			if err := fn(); err != nil {
				reject.Invoke(js.Global().Get("Error").New(err.Error()))
				return
			}
			resolve.Invoke()
		}()
		return nil
	})
	return js.Global().Get("Promise").New(executor)
}

func jsError(v js.Value) error {
	if v.IsUndefined() || v.IsNull() {
		return errors.New("promise rejected")
	}
	if msg := v.Get("message"); msg.Type() == js.TypeString {
		return fmt.Errorf("%s: %s", v.Get("name").String(), msg.String())
	}
	return errors.New(v.String())
}

func isDefined(v js.Value) bool {
	return !v.IsUndefined() && !v.IsNull()
}

// toJS converts v to a plain JS object through JSON.
func toJS(v any) (js.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return js.Undefined(), fmt.Errorf("failed to marshal: %w", err)
	}
	return js.Global().Get("JSON").Call("parse", string(b)), nil
}

// fromJS decodes a JSON-compatible JS value into v.
func fromJS(src js.Value, v any) error {
	s := js.Global().Get("JSON").Call("stringify", src)
	if s.Type() != js.TypeString {
		return errors.New("value is not JSON serializable")
	}
	if err := json.Unmarshal([]byte(s.String()), v); err != nil {
		return fmt.Errorf("failed to unmarshal: %w", err)
	}
	return nil
}
