package response

// 业务码直接沿用 HTTP 语义，响应状态码与 code 保持一致
const (
	CodeOK          = 0
	CodeBadRequest  = 400
	CodeNotFound    = 404
	CodeConflict    = 409
	CodeServerError = 500
	CodeUnavailable = 503
	CodeTimeout     = 504
)

// CodeMsgMap 用于集中管理 code - msg
var CodeMsgMap = map[int]string{
	CodeOK:          "OK",
	CodeBadRequest:  "Bad Request",
	CodeNotFound:    "Not Found",
	CodeConflict:    "Conflict",
	CodeServerError: "Internal Server Error",
	CodeUnavailable: "Service Unavailable",
	CodeTimeout:     "Gateway Timeout",
}
