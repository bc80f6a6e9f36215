package cfg

import (
	"strconv"

	"github.com/spf13/pflag"

	"github.com/simplesurance/mrspy/internal/spyerr"
)

// Resolver provides the value of a setting.
// ok is false if the resolver has no value for the setting.
type Resolver[T any] func() (val T, ok bool, err error)

// FirstOf evaluates resolvers in order and returns the first value that is
// provided. If a resolver fails, its error is returned.
// If no resolver provides a value, ok is false.
func FirstOf[T any](resolvers ...Resolver[T]) (val T, ok bool, err error) {
	for _, r := range resolvers {
		val, ok, err = r()
		if err != nil || ok {
			return val, ok, err
		}
	}

	var zero T
	return zero, false, nil
}

// FromFlag provides the value of the command line flag name if it was set
// explicitly.
func FromFlag[T any](fs *pflag.FlagSet, name string, val *T) Resolver[T] {
	return func() (T, bool, error) {
		var zero T

		if fs == nil || val == nil || !fs.Changed(name) {
			return zero, false, nil
		}

		return *val, true, nil
	}
}

// LookupEnvFunc returns the value of an environment variable and if it is set.
type LookupEnvFunc func(string) (string, bool)

// FromEnv provides the value of the environment variable name if it is set
// and not empty.
func FromEnv(lookup LookupEnvFunc, name string) Resolver[string] {
	return func() (string, bool, error) {
		val, ok := lookup(name)
		if !ok || val == "" {
			return "", false, nil
		}

		return val, true, nil
	}
}

// FromEnvInt provides the integer value of the environment variable name.
func FromEnvInt(lookup LookupEnvFunc, name string) Resolver[int] {
	return func() (int, bool, error) {
		val, ok, _ := FromEnv(lookup, name)()
		if !ok {
			return 0, false, nil
		}

		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, false, spyerr.NewConfigurationError(name, "not an integer: "+val)
		}

		return i, true, nil
	}
}

// FromEnvBool provides the boolean value of the environment variable name.
func FromEnvBool(lookup LookupEnvFunc, name string) Resolver[bool] {
	return func() (bool, bool, error) {
		val, ok, _ := FromEnv(lookup, name)()
		if !ok {
			return false, false, nil
		}

		b, err := strconv.ParseBool(val)
		if err != nil {
			return false, false, spyerr.NewConfigurationError(name, "not a boolean: "+val)
		}

		return b, true, nil
	}
}

// FromValue provides val if it is not the zero value.
// It is used for values from the configuration file.
func FromValue[T comparable](val T) Resolver[T] {
	return func() (T, bool, error) {
		var zero T
		if val == zero {
			return zero, false, nil
		}

		return val, true, nil
	}
}

// Default always provides val.
func Default[T any](val T) Resolver[T] {
	return func() (T, bool, error) {
		return val, true, nil
	}
}
