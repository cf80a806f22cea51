package response

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"user-account-service/internal/domain"
)

type Resp struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

// New 构造函数（保证 data 不为 null）
func New(code int, msg string, data interface{}) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

// OK 成功响应
func OK(data interface{}) Resp {
	return New(CodeOK, CodeMsgMap[CodeOK], data)
}

// Error 失败响应（可以传自定义 msg 覆盖默认）
func Error(code int, customMsg string) Resp {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	return New(code, msg, struct{}{})
}

// Localizer key + 参数 → 文案，找不到时返回 key
type Localizer interface {
	Message(key string, params ...string) string
}

var domainErrors = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "http_domain_errors_total", Help: "Domain errors rendered by the API"},
	[]string{"kind"},
)

func init() { prometheus.MustRegister(domainErrors) }

// StatusOf 领域错误分类 → HTTP 状态
func StatusOf(k domain.Kind) int {
	switch k {
	case domain.KindClientFault:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FromError 渲染任意错误；未分类错误只给通用文案，不带内部细节
func FromError(err error, loc Localizer) (int, Resp) {
	de := domain.AsError(err)
	status := StatusOf(de.Kind)
	domainErrors.WithLabelValues(de.Kind.String()).Inc()

	if de.Kind == domain.KindGeneric {
		return status, Error(status, loc.Message(domain.MsgInternal))
	}
	return status, Error(status, loc.Message(de.Key, de.Params...))
}
