package nsdux

import "fmt"

// Message types dispatched by MemStore itself.
const (
	InitType    = "@@nsdux/INIT"
	ReplaceType = "@@nsdux/REPLACE"
)

// Message is a tagged payload dispatched to trigger a state transition.
//
// Type selects the Action whose reducer runs. Every Payload field is
// interpreted by that reducer; no payload keys are reserved.
type Message struct {
	Type    string         `json:"type" msgpack:"type"`
	Payload map[string]any `json:"payload,omitempty" msgpack:"payload,omitempty"`
}

// Msg builds a Message from alternating key/value pairs:
//
//	nsdux.Msg("setTarget", "target", "hn")
//
// An empty type is stamped with the Action name on dispatch. Msg panics if a
// key is not a string or a value is missing.
func Msg(typ string, kv ...any) Message {
	m := Message{Type: typ}
	if len(kv) == 0 {
		return m
	}
	if len(kv)%2 != 0 {
		panic(fmt.Sprintf("nsdux: Msg(%q) called with odd number of key/value arguments", typ))
	}
	m.Payload = make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("nsdux: Msg(%q) key %d is %T, not string", typ, i/2, kv[i]))
		}
		m.Payload[key] = kv[i+1]
	}
	return m
}

// Get returns the payload value stored under key, or nil.
func (m Message) Get(key string) any {
	return m.Payload[key]
}

// With returns a copy of m with key set in its payload.
func (m Message) With(key string, value any) Message {
	payload := make(map[string]any, len(m.Payload)+1)
	for k, v := range m.Payload {
		payload[k] = v
	}
	payload[key] = value
	return Message{Type: m.Type, Payload: payload}
}

func (m Message) String() string {
	return fmt.Sprintf("%s%v", m.Type, m.Payload)
}
