package logfields

import "go.uber.org/zap"

func Event(val string) zap.Field {
	return zap.String("event", val)
}

func Spyfile(path string) zap.Field {
	return zap.String("spyfile", path)
}

func State(val string) zap.Field {
	return zap.String("sync_state", val)
}
