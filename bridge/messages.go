package bridge

// Action names the native handler a payload is delivered to.
type Action string

const (
	ActionTrueFetch     Action = "trueFetch"
	ActionFetchResponse Action = "fetchResponse"
	ActionFetchDefault  Action = "fetchDefault"
)

// TrueFetchMessage is the outbound request issued by fetch().
type TrueFetchMessage struct {
	Method  string              `json:"method"`
	URL     string              `json:"url"`
	Headers map[string][]string `json:"headers"`
}

// WireResponse is a response as it travels across the bridge. Body is base64.
type WireResponse struct {
	Body    string              `json:"body"`
	URL     string              `json:"url"`
	Status  int                 `json:"status"`
	Headers map[string][]string `json:"headers"`
}

type WireRequest struct {
	URL string `json:"url"`
}

type FetchResponseMessage struct {
	RequestID string       `json:"requestId"`
	Response  WireResponse `json:"response"`
}

type FetchDefaultMessage struct {
	RequestID string      `json:"requestId"`
	Request   WireRequest `json:"request"`
}
