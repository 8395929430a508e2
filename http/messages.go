package http

import (
	nethttp "net/http"

	"golang.org/x/text/language"
)

// Locale selects the language of client-generated error messages.
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleZH Locale = "zh"
)

// UnknownErrorMessage is the last-resort message; a NormalizedError never has an empty one.
const UnknownErrorMessage = "Unknown error"

// DefaultDomainMessage is used when a failed envelope carries no message.
const DefaultDomainMessage = "Request failed"

var localeMatcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Chinese,
})

// ResolveLocale maps a BCP 47 tag or Accept-Language value to a supported
// locale, defaulting to English.
func ResolveLocale(tag string) Locale {
	if tag == "" {
		return LocaleEN
	}
	tags, _, err := language.ParseAcceptLanguage(tag)
	if err != nil || len(tags) == 0 {
		return LocaleEN
	}
	_, idx, conf := localeMatcher.Match(tags...)
	if conf == language.No {
		return LocaleEN
	}
	if idx == 1 {
		return LocaleZH
	}
	return LocaleEN
}

// Valid reports whether l is a supported locale.
func (l Locale) Valid() bool {
	return l == LocaleEN || l == LocaleZH
}

type messageKey int

const (
	msgTimeout messageKey = iota
	msgNetwork
	msgCanceled
	msgRequestFailed
)

var fixedMessages = map[Locale]map[messageKey]string{
	LocaleEN: {
		msgTimeout:       "Request timed out, please check your network connection",
		msgNetwork:       "Network error, please check your network connection",
		msgCanceled:      "Request canceled",
		msgRequestFailed: "Request failed, please try again later",
	},
	LocaleZH: {
		msgTimeout:       "请求超时，请检查网络连接",
		msgNetwork:       "网络错误，请检查网络连接",
		msgCanceled:      "请求已取消",
		msgRequestFailed: "请求失败，请稍后重试",
	},
}

var statusMessages = map[Locale]map[int]string{
	LocaleEN: {
		nethttp.StatusBadRequest:          "Invalid request parameters",
		nethttp.StatusUnauthorized:        "Unauthorized, please log in again",
		nethttp.StatusForbidden:           "Access denied",
		nethttp.StatusNotFound:            "The requested resource does not exist",
		nethttp.StatusTooManyRequests:     "Too many requests, please try again later",
		nethttp.StatusInternalServerError: "Server error, please try again later",
		nethttp.StatusBadGateway:          "Service temporarily unavailable, please try again later",
		nethttp.StatusServiceUnavailable:  "Service temporarily unavailable, please try again later",
		nethttp.StatusGatewayTimeout:      "Service temporarily unavailable, please try again later",
	},
	LocaleZH: {
		nethttp.StatusBadRequest:          "请求参数错误",
		nethttp.StatusUnauthorized:        "未授权，请重新登录",
		nethttp.StatusForbidden:           "无权限访问",
		nethttp.StatusNotFound:            "请求的资源不存在",
		nethttp.StatusTooManyRequests:     "请求过于频繁，请稍后再试",
		nethttp.StatusInternalServerError: "服务器错误，请稍后重试",
		nethttp.StatusBadGateway:          "服务暂时不可用，请稍后重试",
		nethttp.StatusServiceUnavailable:  "服务暂时不可用，请稍后重试",
		nethttp.StatusGatewayTimeout:      "服务暂时不可用，请稍后重试",
	},
}

func fixedMessage(l Locale, key messageKey) string {
	if m, ok := fixedMessages[l]; ok {
		return m[key]
	}
	return fixedMessages[LocaleEN][key]
}

func statusMessage(l Locale, status int) (string, bool) {
	m, ok := statusMessages[l]
	if !ok {
		m = statusMessages[LocaleEN]
	}
	msg, ok := m[status]
	return msg, ok
}
