package middleware

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/language"
)

// Locales the portal ships content for. The first entry is the fallback
// used when negotiation finds nothing better.
var supportedLocales = []language.Tag{
	language.English, // en — default
	language.German,  // de
	language.French,  // fr
	language.Dutch,   // nl
}

var localeMatcher = language.NewMatcher(supportedLocales)

// DefaultLocale is the fallback content locale.
const DefaultLocale = "en"

// LocaleMiddleware negotiates the content locale from the Accept-Language
// header (or an explicit ?locale= override) and stores the resolved base
// tag in c.Locals("locale") for handlers to localize catalog content.
func LocaleMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("locale", negotiateLocale(c.Query("locale"), c.Get("Accept-Language")))
		return c.Next()
	}
}

func negotiateLocale(override, acceptLanguage string) string {
	if override != "" {
		if tag, err := language.Parse(override); err == nil {
			_, idx, conf := localeMatcher.Match(tag)
			if conf > language.No {
				return baseLocale(supportedLocales[idx])
			}
		}
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, idx, conf := localeMatcher.Match(tags...)
	if conf == language.No {
		return DefaultLocale
	}
	return baseLocale(supportedLocales[idx])
}

func baseLocale(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

// Locale returns the negotiated content locale for the request,
// falling back to the default when the middleware did not run.
func Locale(c *fiber.Ctx) string {
	if loc, ok := c.Locals("locale").(string); ok && loc != "" {
		return loc
	}
	return DefaultLocale
}
