package i18n

import (
	"fmt"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"gopkg.in/yaml.v3"
)

// defaultMessages 内置英文文案，占位符 {0} {1} ... 按位置替换
var defaultMessages = map[string]string{
	"user.email.alreadyRegistered": "Email is already registered",
	"user.notExist":                "User does not exist",
	"concurrentModificationError":  "The user was modified by another request, please retry",
	"page.number.invalid":          "Invalid page number. Must be minimum {0}",
	"internal.error":               "Internal Server Error",
	"request.malformed":            "Malformed request",

	"user.name.mandatory":     "Name is mandatory",
	"user.name.format":        "Name can only contain letters and spaces",
	"user.name.maxLength":     "Name must be at most {0} characters",
	"user.email.mandatory":    "Email is mandatory",
	"user.email.format":       "Email format is invalid",
	"user.password.mandatory": "Password is mandatory",
	"user.password.minLength": "Password must be at least {0} characters",
	"user.password.maxLength": "Password must be at most {0} characters",
	"user.password.format":    "Password can only contain letters and digits",
}

// Translator 消息目录：key + 参数 → 文案；找不到 key 时原样返回 key
type Translator struct {
	tr ut.Translator
}

// New 加载内置文案，path 非空时再用 YAML（平铺 key: text）覆盖
func New(path string) (*Translator, error) {
	locale := en.New()
	uni := ut.New(locale, locale)
	tr, _ := uni.GetTranslator(locale.Locale())

	for k, v := range defaultMessages {
		if err := tr.Add(k, v, true); err != nil {
			return nil, fmt.Errorf("add message %q: %w", k, err)
		}
	}
	if path != "" {
		extra, err := readMessages(path)
		if err != nil {
			return nil, err
		}
		for k, v := range extra {
			if err := tr.Add(k, v, true); err != nil {
				return nil, fmt.Errorf("add message %q: %w", k, err)
			}
		}
	}
	return &Translator{tr: tr}, nil
}

func readMessages(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read messages file: %w", err)
	}
	out := map[string]string{}
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse messages file: %w", err)
	}
	return out, nil
}

func (t *Translator) Message(key string, params ...string) (msg string) {
	if key == "" {
		return ""
	}
	// 文案占位符比参数多时 T 会越界
	defer func() {
		if recover() != nil {
			msg = key
		}
	}()
	s, err := t.tr.T(key, params...)
	if err != nil || s == "" {
		return key
	}
	return s
}
