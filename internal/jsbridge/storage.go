//go:build js && wasm

package jsbridge

import (
	"syscall/js"

	"github.com/kazz187/messmate-push/internal/subscriptionmanager"
)

var _ subscriptionmanager.UserStore = LocalStorage{}

// LocalStorage reads window.localStorage.
type LocalStorage struct{}

func (LocalStorage) Get(key string) (string, bool) {
	ls := js.Global().Get("localStorage")
	if !isDefined(ls) {
		return "", false
	}
	v := ls.Call("getItem", key)
	if !isDefined(v) {
		return "", false
	}
	return v.String(), true
}
