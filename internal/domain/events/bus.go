// Package events is a tiny in-process pub/sub bus. Background workers
// (push channel, refresher, store) publish here; the controller
// subscribes and funnels everything into its single render loop.
package events

import (
	"reflect"
	"sync"

	"github.com/sirupsen/logrus"
)

type subscriber func(any)

var (
	mu   sync.RWMutex
	subs = map[string][]subscriber{} // type name -> subs
)

func typeNameOf[T any]() string {
	var zero *T
	rt := reflect.TypeOf(zero).Elem() // *T -> T, without dereferencing nil
	return rt.PkgPath() + "." + rt.Name()
}

func Subscribe[T any](fn func(T)) func() {
	name := typeNameOf[T]()
	wrapped := func(v any) {
		if ev, ok := v.(T); ok {
			fn(ev)
		}
	}

	mu.Lock()
	subs[name] = append(subs[name], wrapped)
	idx := len(subs[name]) - 1
	mu.Unlock()

	return func() {
		mu.Lock()
		defer mu.Unlock()
		ss := subs[name]
		if idx >= 0 && idx < len(ss) {
			subs[name] = append(ss[:idx], ss[idx+1:]...)
		}
	}
}

func Publish[T any](ev T) {
	name := typeNameOf[T]()
	mu.RLock()
	ss := append([]subscriber(nil), subs[name]...)
	mu.RUnlock()
	for _, s := range ss {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("event", name).Warnf("events: subscriber panic: %v", r)
				}
			}()
			s(ev)
		}()
	}
}

func Count[T any]() int {
	mu.RLock()
	defer mu.RUnlock()
	return len(subs[typeNameOf[T]()])
}
