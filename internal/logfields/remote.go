package logfields

import "go.uber.org/zap"

func Project(id string) zap.Field {
	return zap.String("gitlab.project", id)
}

func MergeRequest(iid int) zap.Field {
	return zap.Int("gitlab.merge_request", iid)
}

func Channel(id string) zap.Field {
	return zap.String("slack.channel", id)
}

func MessageTS(ts string) zap.Field {
	return zap.String("slack.message_ts", ts)
}

func URL(val string) zap.Field {
	return zap.String("http_url", val)
}

func HTTPStatus(code int) zap.Field {
	return zap.Int("http_response_code", code)
}
