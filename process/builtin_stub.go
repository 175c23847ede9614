package process

import "context"

// These science processes are named in original_source/ but their
// numerical bodies were not part of the distilled spec's scope; they
// are registered so workflow configurations can reference them and
// fail loudly with ErrNotImplemented rather than silently resolving
// to an unknown-process error.
func init() {
	for _, name := range []string{
		"compute_humidity",
		"compute_temperature",
		"compute_radiation",
		"compute_wind",
	} {
		Register(name, Descriptor{
			Func:            notImplementedFunc(name),
			InputType:       KindGrid,
			OutputType:      KindGrid,
			ContinuousSpace: true,
		})
	}
}

func notImplementedFunc(name string) Func {
	return func(_ context.Context, _ Input) (Output, error) {
		return Output{}, &ErrNotImplemented{Name: name}
	}
}
