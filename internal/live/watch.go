package live

import "context"

// Result is one emission of a watched query.
type Result[T any] struct {
	Value T
	Err   error
}

// Watch runs query immediately and again after every change signal on
// table, sending each result on the returned channel. The channel is closed
// once ctx is done. A failing query is reported as a Result with Err set and
// the watch keeps going.
func Watch[T any](ctx context.Context, hub *Hub, table string, query func(ctx context.Context) (T, error)) <-chan Result[T] {
	out := make(chan Result[T])
	signals, cancel := hub.Subscribe(table)

	go func() {
		defer close(out)
		defer cancel()

		for {
			value, err := query(ctx)
			if ctx.Err() != nil {
				return
			}

			select {
			case out <- Result[T]{Value: value, Err: err}:
			case <-ctx.Done():
				return
			}

			select {
			case <-signals:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
