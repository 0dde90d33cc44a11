package content

import (
	"golang.org/x/text/language"
)

const defaultLang = "en"

// Scripts written right to left.
var rtlScripts = map[string]bool{
	"Arab": true,
	"Hebr": true,
	"Thaa": true,
	"Syrc": true,
	"Nkoo": true,
	"Adlm": true,
	"Rohg": true,
}

var videoLinkLabels = map[string]string{
	"en": "Watch the video",
	"ar": "شاهد الفيديو",
	"he": "צפו בסרטון",
	"fa": "تماشای ویدیو",
	"fr": "Regarder la vidéo",
	"es": "Ver el video",
}

// locale is a resolved document language.
type locale struct {
	tag  string
	base string
	dir  string
}

// resolveLocale parses a BCP 47 tag. Unparseable or empty input falls back to English.
func resolveLocale(lang string) locale {
	tag, err := language.Parse(lang)
	if err != nil || lang == "" {
		tag = language.English
	}
	base, _ := tag.Base()
	script, _ := tag.Script()

	dir := "ltr"
	if rtlScripts[script.String()] {
		dir = "rtl"
	}
	return locale{tag: tag.String(), base: base.String(), dir: dir}
}

// videoLabel is the localized text for an embed replacement link.
func (l locale) videoLabel() string {
	if label, ok := videoLinkLabels[l.base]; ok {
		return label
	}
	return videoLinkLabels[defaultLang]
}

// textAlign is the start edge for the direction.
func (l locale) textAlign() string {
	if l.dir == "rtl" {
		return "right"
	}
	return "left"
}
