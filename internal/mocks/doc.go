// Package mocks provides hand-written test doubles for the interfaces the
// service and task packages depend on.
//
// Each mock exposes an XxxFn field per method. When the field is nil the
// mock falls back to a simple in-memory behavior, so most tests only set the
// one function they care about:
//
//	gen := mocks.NewMockGeneratorWithSlides(3)
//	gen.GenerateContentFn = func(ctx context.Context, topic string, n int) (*domain.PresentationData, error) {
//	    return nil, generation.ErrContentBlocked
//	}
//
// Mocks that record calls guard them with a mutex and expose accessor
// methods, since executors run handlers on several goroutines.
package mocks
