package protocol

import "encoding/json"

// Client-originated frames. The server accepts subscribe, unsubscribe
// and ping; pong is the reply to a server liveness probe.

func EncodePong() []byte {
	return mustMarshal(map[string]string{"type": "pong"})
}

func EncodePing() []byte {
	return mustMarshal(map[string]string{"type": "ping"})
}

func EncodeSubscribe(taskID string) []byte {
	return mustMarshal(map[string]string{"type": "subscribe", "task_id": taskID})
}

func EncodeUnsubscribe(taskID string) []byte {
	return mustMarshal(map[string]string{"type": "unsubscribe", "task_id": taskID})
}

func mustMarshal(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}
