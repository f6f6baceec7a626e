package speech

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/turtacn/PriviQ/pkg/errors"
)

// Language is a target language for translation and speech.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
	tag  language.Tag
}

// IsEnglish reports whether no translation is needed.
func (l Language) IsEnglish() bool { return l.Code == "en" }

// SupportedLanguages is the selectable list, English first.
var SupportedLanguages = []Language{
	{Code: "en", Name: "English", tag: language.English},
	{Code: "hi", Name: "Hindi", tag: language.Hindi},
	{Code: "es", Name: "Spanish", tag: language.Spanish},
	{Code: "fr", Name: "French", tag: language.French},
	{Code: "de", Name: "German", tag: language.German},
	{Code: "zh-cn", Name: "Chinese (Simplified)", tag: language.SimplifiedChinese},
	{Code: "ja", Name: "Japanese", tag: language.Japanese},
	{Code: "ar", Name: "Arabic", tag: language.Arabic},
}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, len(SupportedLanguages))
	for i, l := range SupportedLanguages {
		tags[i] = l.tag
	}
	return language.NewMatcher(tags)
}()

// ParseLanguage resolves a code ("fr", "zh-CN", "en-US") or display name
// ("French") to a supported language. An empty input means English.
func ParseLanguage(s string) (Language, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SupportedLanguages[0], nil
	}
	for _, l := range SupportedLanguages {
		if strings.EqualFold(s, l.Code) || strings.EqualFold(s, l.Name) {
			return l, nil
		}
	}
	tag, err := language.Parse(s)
	if err != nil {
		return Language{}, errors.New(errors.ErrCodeLanguageUnsupported, "unsupported language").WithDetail("language=" + s)
	}
	_, idx, conf := matcher.Match(tag)
	if conf < language.High {
		return Language{}, errors.New(errors.ErrCodeLanguageUnsupported, "unsupported language").WithDetail("language=" + s)
	}
	return SupportedLanguages[idx], nil
}
