package handler

import (
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const msgMalformed = "request.malformed"

var (
	nameChars    = regexp.MustCompile(`^[a-zA-Z ]*$`)
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators 向 gin 的 validator 注册自定义规则（只注册一次）
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		registerErr = v.RegisterValidation("namechars", func(fl validator.FieldLevel) bool {
			return nameChars.MatchString(fl.Field().String())
		})
	})
	return registerErr
}

// tag → 消息 key 后缀
var tagSuffix = map[string]string{
	"required":  "mandatory",
	"max":       "maxLength",
	"min":       "minLength",
	"email":     "format",
	"namechars": "format",
	"alphanum":  "format",
}

type fieldMessage struct {
	key    string
	params []string
}

// fieldMessages 把绑定错误翻成 user.<field>.<rule> 形式的 key，按字段顺序去重
func fieldMessages(err error) []fieldMessage {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return []fieldMessage{{key: msgMalformed}}
	}
	seen := map[string]bool{}
	out := make([]fieldMessage, 0, len(ves))
	for _, fe := range ves {
		suffix, ok := tagSuffix[fe.Tag()]
		if !ok {
			suffix = "format"
		}
		key := "user." + strings.ToLower(fe.Field()) + "." + suffix
		if seen[key] {
			continue
		}
		seen[key] = true
		m := fieldMessage{key: key}
		if fe.Tag() == "min" || fe.Tag() == "max" {
			m.params = []string{fe.Param()}
		}
		out = append(out, m)
	}
	return out
}
