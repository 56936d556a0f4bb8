package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// DefaultLanguages are the locales shipped in LocalesFS, fallback first.
var DefaultLanguages = []string{"en", "hi"}

type Translator struct {
	lang         string
	translations map[string]string
	fallback     *Translator
}

// NewTranslator reads locales/<langCode>.yaml from fsys.
func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	filePath := path.Join("locales", langCode+".yaml")
	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
	}
	t, err := newTranslatorFromBytes(data)
	if err != nil {
		return nil, err
	}
	t.lang = langCode
	return t, nil
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}
	return &Translator{translations: translations}, nil
}

func (t *Translator) Lang() string { return t.lang }

// T formats the message for key. Missing keys fall back to the fallback
// locale, then to the key itself.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		if t.fallback != nil {
			return t.fallback.T(key, args...)
		}
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// N picks key_one or key_other by count.
func (t *Translator) N(key string, n int) string {
	if n == 1 {
		return t.T(key + "_one")
	}
	return t.T(key+"_other", n)
}

// Bundle holds every loaded locale and negotiates between them.
type Bundle struct {
	byLang  map[string]*Translator
	tags    []language.Tag
	matcher language.Matcher
}

// NewBundle loads langs from fsys. The first language is the fallback.
func NewBundle(fsys fs.FS, langs ...string) (*Bundle, error) {
	if len(langs) == 0 {
		return nil, fmt.Errorf("no languages given")
	}
	b := &Bundle{byLang: make(map[string]*Translator, len(langs))}
	var fallback *Translator
	for _, l := range langs {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("language %q: %w", l, err)
		}
		tr, err := NewTranslator(fsys, l)
		if err != nil {
			return nil, err
		}
		if fallback == nil {
			fallback = tr
		} else {
			tr.fallback = fallback
		}
		b.byLang[l] = tr
		b.tags = append(b.tags, tag)
	}
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

// MustDefault loads the embedded locales.
func MustDefault() *Bundle {
	b, err := NewBundle(LocalesFS, DefaultLanguages...)
	if err != nil {
		panic(err)
	}
	return b
}

// For returns the best translator for an Accept-Language header value.
func (b *Bundle) For(acceptLanguage string) *Translator {
	_, idx := language.MatchStrings(b.matcher, acceptLanguage)
	if idx < 0 || idx >= len(b.tags) {
		idx = 0
	}
	base, _ := b.tags[idx].Base()
	if t, ok := b.byLang[base.String()]; ok {
		return t
	}
	return b.byLang[b.tags[0].String()]
}
