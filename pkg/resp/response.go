package resp

type ResponseCode int64

const (
	Succeeded  ResponseCode = 0
	Failed     ResponseCode = 1
	BadRequest ResponseCode = 400
	NotFound   ResponseCode = 404
	Conflict   ResponseCode = 409
)

type Response struct {
	Code    ResponseCode `json:"code"`
	Message string       `json:"message"`
	Data    interface{}  `json:"data"`
}

func NewResponse(code ResponseCode, message string, data interface{}) *Response {
	return &Response{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func Success(data interface{}) *Response {
	return NewResponse(Succeeded, "OK", data)
}

func Message(msg string) *Response {
	return NewResponse(Succeeded, msg, nil)
}

func Error(code ResponseCode, message string) *Response {
	return NewResponse(code, message, nil)
}
