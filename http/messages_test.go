package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveLocale(t *testing.T) {
	tests := []struct {
		in   string
		want Locale
	}{
		{"", LocaleEN},
		{"en", LocaleEN},
		{"en-US", LocaleEN},
		{"zh", LocaleZH},
		{"zh-CN", LocaleZH},
		{"zh-CN,zh;q=0.9,en;q=0.8", LocaleZH},
		{"en;q=0.5,zh;q=0.9", LocaleZH},
		{"fr-FR", LocaleEN},
		{"%%%", LocaleEN},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveLocale(tt.in))
		})
	}
}

func TestLocaleValid(t *testing.T) {
	assert.True(t, LocaleEN.Valid())
	assert.True(t, LocaleZH.Valid())
	assert.False(t, Locale("fr").Valid())
}

func TestMessagesCoverBothLocales(t *testing.T) {
	for _, key := range []messageKey{msgTimeout, msgNetwork, msgCanceled, msgRequestFailed} {
		assert.NotEmpty(t, fixedMessage(LocaleEN, key))
		assert.NotEmpty(t, fixedMessage(LocaleZH, key))
	}
	for status := range statusMessages[LocaleEN] {
		_, ok := statusMessage(LocaleZH, status)
		assert.True(t, ok, "status %d", status)
	}

	// unknown locales fall back to English
	assert.Equal(t, fixedMessage(LocaleEN, msgTimeout), fixedMessage(Locale("fr"), msgTimeout))
	msg, ok := statusMessage(Locale("fr"), 404)
	assert.True(t, ok)
	assert.Equal(t, statusMessages[LocaleEN][404], msg)
}
