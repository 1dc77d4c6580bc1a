package app

import (
	"context"
	"errors"
	"reflect"

	"destiny_blue/internal/domain"
)

// Fanout delivers each notice to every channel. It reports the first id any
// channel returned and joins the errors; one failing channel does not stop the rest.
type Fanout []domain.Notifier

// NewFanout drops nil channels, including typed nils from unconfigured adapters.
func NewFanout(ns ...domain.Notifier) Fanout {
	var out Fanout
	for _, n := range ns {
		if n == nil {
			continue
		}
		if v := reflect.ValueOf(n); v.Kind() == reflect.Pointer && v.IsNil() {
			continue
		}
		out = append(out, n)
	}
	return out
}

func (f Fanout) Notify(ctx context.Context, n domain.Notice) (string, error) {
	var (
		first string
		errs  []error
	)
	for _, ch := range f {
		id, err := ch.Notify(ctx, n)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if first == "" {
			first = id
		}
	}
	return first, errors.Join(errs...)
}
