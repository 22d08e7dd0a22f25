package middleware

import (
	"context"
	"net/http"

	"golang.org/x/text/language"
)

type localeContextKey struct{}

// LocaleKey carries the negotiated UI locale through the request context. The
// locale only feeds prompt construction; string tables live in the client.
var LocaleKey = localeContextKey{}

var supportedLocales = language.NewMatcher([]language.Tag{
	language.English, // first tag is the fallback
	language.Indonesian,
	language.Japanese,
	language.Spanish,
	language.BrazilianPortuguese,
})

func Locale(defaultLocale string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := detectLocale(r, defaultLocale)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok {
		return v
	}
	return ""
}

func detectLocale(r *http.Request, fallback string) string {
	if v := r.Header.Get("X-Locale"); v != "" {
		if tag, err := language.Parse(v); err == nil {
			return normalizeTag(tag)
		}
	}
	if header := r.Header.Get("Accept-Language"); header != "" {
		if tags, _, err := language.ParseAcceptLanguage(header); err == nil && len(tags) > 0 {
			tag, _, conf := supportedLocales.Match(tags...)
			if conf > language.No {
				return normalizeTag(tag)
			}
		}
	}
	if fallback != "" {
		return fallback
	}
	return "en"
}

func normalizeTag(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}
