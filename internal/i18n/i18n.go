// Package i18n resolves shopper locales and localizes user-facing messages.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLocale is used when nothing better matches.
const DefaultLocale = "ja"

var matcher = language.NewMatcher([]language.Tag{
	language.Japanese,
	language.English,
})

// Normalize maps any BCP 47 tag or Accept-Language value onto a supported
// base language.
func Normalize(locales ...string) string {
	tag, _ := language.MatchStrings(matcher, locales...)
	base, _ := tag.Base()
	return base.String()
}

const (
	MsgSessionNotFound    = "session_not_found"
	MsgProductNotFound    = "product_not_found"
	MsgBackendUnavailable = "backend_unavailable"
	MsgEmptyCart          = "empty_cart"
	MsgInvalidBody        = "invalid_body"
	MsgInvalidBarcode     = "invalid_barcode"
	MsgOrderMismatch      = "order_mismatch"
	MsgInternalError      = "internal_error"
)

var catalog = map[string][2]string{
	MsgSessionNotFound:    {"セッションが見つかりません。最初からやり直してください。", "Your session has expired. Please start again."},
	MsgProductNotFound:    {"商品が見つかりませんでした。", "Product not found."},
	MsgBackendUnavailable: {"通信エラーが発生しました。もう一度お試しください。", "A network error occurred. Please try again."},
	MsgEmptyCart:          {"カートに商品がありません。", "Your cart is empty."},
	MsgInvalidBody:        {"リクエストの形式が正しくありません。", "The request could not be read."},
	MsgInvalidBarcode:     {"バーコードを読み取れませんでした。", "The barcode could not be read."},
	MsgOrderMismatch:      {"注文情報が一致しません。", "The order does not match this session."},
	MsgInternalError:      {"エラーが発生しました。", "Something went wrong."},
}

func init() {
	for key, m := range catalog {
		_ = message.SetString(language.Japanese, key, m[0])
		_ = message.SetString(language.English, key, m[1])
	}
}

// Message returns the text for key in locale, falling back to the key.
func Message(locale, key string) string {
	p := message.NewPrinter(language.Make(Normalize(locale)))
	return p.Sprintf(message.Key(key, key))
}
