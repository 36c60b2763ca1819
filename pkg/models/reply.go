package models

import "encoding/json"

// ReplyToolName is the canonical name of the distinguished reply tool. Its
// successful invocation is what the Agent turns into a ReplyReceived event.
const ReplyToolName = "ema_reply"

// Reply is the structured payload carried by a successful ema_reply tool
// call. It is parsed from the tool's JSON content, never hand-built from
// free text, so round-tripping it through JSON is lossless by construction.
type Reply struct {
	Think      string `json:"think"`
	Expression string `json:"expression"`
	Action     string `json:"action"`
	Response   string `json:"response"`
}

// ParseReply decodes a Reply from the raw JSON content of a successful
// ema_reply tool call.
func ParseReply(content string) (Reply, error) {
	var r Reply
	if err := json.Unmarshal([]byte(content), &r); err != nil {
		return Reply{}, err
	}
	return r, nil
}

// JSON renders the Reply back to its canonical JSON form.
func (r Reply) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return "{}"
	}
	return string(b)
}
