// Package locale loads the embedded translations and picks a language per request.
package locale

import (
	"embed"
	"io/fs"
	"strings"

	"github.com/filedock/filedock/logger"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

//go:embed translation/*
var translationFS embed.FS

// Bundle holds every parsed translation. It is safe for concurrent use once built.
type Bundle struct {
	bundle *i18n.Bundle
}

// New parses the built-in translations.
func New() (*Bundle, error) {
	return NewFromFS(translationFS)
}

// NewFromFS parses every file under "translation" in fsys. English is the fallback.
func NewFromFS(fsys fs.FS) (*Bundle, error) {
	b := i18n.NewBundle(language.MustParse("en-US"))
	b.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	err := fs.WalkDir(fsys, "translation", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		_, err = b.ParseMessageFileBytes(data, path)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Bundle{bundle: b}, nil
}

// Localizer returns a localizer for the given Accept-Language style preferences.
func (b *Bundle) Localizer(langs ...string) *i18n.Localizer {
	return i18n.NewLocalizer(b.bundle, langs...)
}

// LanguageTags lists the languages with translations.
func (b *Bundle) LanguageTags() []language.Tag {
	return b.bundle.LanguageTags()
}

func createTemplateData(params []string, separator ...string) map[string]any {
	sep := "=="
	if len(separator) > 0 {
		sep = separator[0]
	}

	templateData := make(map[string]any)
	for _, param := range params {
		parts := strings.SplitN(param, sep, 2)
		if len(parts) != 2 {
			continue
		}
		templateData[parts[0]] = parts[1]
	}
	return templateData
}

// Localize renders key with params given as "Name==value". An unknown key
// or a nil localizer yields the key itself.
func Localize(localizer *i18n.Localizer, key string, params ...string) string {
	if localizer == nil {
		return key
	}
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: createTemplateData(params),
	})
	if err != nil {
		logger.Warningf("failed to localize message %q: %v", key, err)
		return key
	}
	return msg
}

// LocalizerMiddleware stores a per-request localizer under "localizer". The
// "lang" cookie wins over the Accept-Language header.
func (b *Bundle) LocalizerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var lang string
		if cookie, err := c.Request.Cookie("lang"); err == nil {
			lang = cookie.Value
		} else {
			lang = c.GetHeader("Accept-Language")
		}
		c.Set("localizer", b.Localizer(lang))
		c.Next()
	}
}

// FromContext returns the localizer set by LocalizerMiddleware, or nil.
func FromContext(c *gin.Context) *i18n.Localizer {
	if v, ok := c.Get("localizer"); ok {
		if l, ok := v.(*i18n.Localizer); ok {
			return l
		}
	}
	return nil
}
