package hertzx

import (
	"github.com/hertz-contrib/sse"

	"github.com/Pratyush783/bug-fixer-agent/pkg/util"
)

type SseSender struct {
	ss *sse.Stream
}

func NewSseSender(ss *sse.Stream) *SseSender {
	return &SseSender{ss: ss}
}

// Send 发送
func (s *SseSender) Send(data *sse.Event) error {
	return s.ss.Publish(data)
}

// BuildDataEvent 构建事件
func BuildDataEvent(data any) *sse.Event {
	if data == nil {
		return nil
	}
	if e, ok := data.(*sse.Event); ok {
		return e
	}
	if s, ok := data.(string); ok {
		return &sse.Event{
			Data: []byte(s),
		}
	}
	m := util.ToJsonIgnoreError(data)
	return &sse.Event{
		Data: []byte(m),
	}
}
