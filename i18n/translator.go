package i18n

import (
	"strings"
	"sync/atomic"
)

// Translator retrieves localized messages for Issue codes.
// data provides values substituted for {key} placeholders (for example
// "field" or "got").
type Translator interface {
	Message(code string, data map[string]string) string
}

var catalogs = map[string]map[string]string{
	"en": {
		"lexical_error":   "{reason} '{text}'",
		"syntax_error":    "syntax error: expected {expected}, got {got}",
		"unknown_field":   "unknown field '{field}' in message {message}",
		"unknown_enum":    "unknown value '{value}' for enum {enum} of field '{field}'",
		"invalid_value":   "invalid {kind} value '{value}' for field '{field}'",
		"type_mismatch":   "field '{field}' of kind {kind} cannot take {got}",
		"duplicate_field": "field '{field}' assigned more than once",
		"max_depth":       "maximum nesting depth {max} exceeded",
		"truncated":       "input exceeds {max} bytes",
		"out_of_memory":   "out of memory",
		"io_error":        "read error: {reason}",
	},
	"ja": {
		"lexical_error":   "字句エラー ({reason}): '{text}'",
		"syntax_error":    "構文エラー: {expected} が必要ですが {got} がありました",
		"unknown_field":   "メッセージ {message} に未知のフィールド '{field}' があります",
		"unknown_enum":    "フィールド '{field}' の列挙型 {enum} に未知の値 '{value}' があります",
		"invalid_value":   "フィールド '{field}' の {kind} 値 '{value}' が不正です",
		"type_mismatch":   "{kind} 型のフィールド '{field}' に {got} は指定できません",
		"duplicate_field": "フィールド '{field}' が複数回指定されています",
		"max_depth":       "ネストの深さが上限 {max} を超えました",
		"truncated":       "入力が {max} バイトを超えました",
		"out_of_memory":   "メモリが不足しています",
		"io_error":        "読み込みエラー: {reason}",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	tmpl, ok := catalogs[t.lang][code]
	if !ok {
		tmpl, ok = catalogs["en"][code]
	}
	if !ok {
		return code
	}
	return expand(tmpl, data)
}

func expand(tmpl string, data map[string]string) string {
	if len(data) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, 2*len(data))
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

type holder struct{ tr Translator }

var current atomic.Pointer[holder]

func init() { current.Store(&holder{tr: dictTranslator{lang: "en"}}) }

// Dictionary returns the built-in Translator for lang ("en"/"ja"); other
// languages fall back to English.
func Dictionary(lang string) Translator {
	if _, ok := catalogs[lang]; !ok {
		lang = "en"
	}
	return dictTranslator{lang: lang}
}

// SetLanguage switches the process default to the built-in Translator for
// lang.
func SetLanguage(lang string) { current.Store(&holder{tr: Dictionary(lang)}) }

// SetTranslator replaces the process default Translator; nil restores
// English.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	current.Store(&holder{tr: tr})
}

// Current returns the process default Translator.
func Current() Translator { return current.Load().tr }

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return Current().Message(code, data) }
