package ovh

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"
)

// Sign 生成 X-Ovh-Signature：$1$ + sha1(AS+CK+METHOD+URL+BODY+TS)
func Sign(appSecret, consumerKey, method, fullURL, body string, timestamp int64) string {
	h := sha1.New()
	h.Write([]byte(strings.Join([]string{
		appSecret,
		consumerKey,
		strings.ToUpper(method),
		fullURL,
		body,
		strconv.FormatInt(timestamp, 10),
	}, "+")))
	return "$1$" + hex.EncodeToString(h.Sum(nil))
}
