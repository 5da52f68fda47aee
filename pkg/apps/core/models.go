package core

import "github.com/webasyst/webasyst-go/pkg/webasyst"

// InstallationInfo is the result of webasyst.getInfo.
type InstallationInfo struct {
	Name string `json:"name" yaml:"name"`
	Logo *Logo  `json:"logo" yaml:"logo,omitempty"`
}

// Logo describes how the installation renders its logo.
type Logo struct {
	Mode     string        `json:"mode"      yaml:"mode"`
	Text     LogoText      `json:"text"      yaml:"text"`
	Gradient LogoGradient  `json:"gradient"  yaml:"gradient"`
	TwoLines bool          `json:"two_lines" yaml:"two_lines"`
	Image    *LogoImageSet `json:"image"     yaml:"image,omitempty"`
}

// LogoText is the text of a gradient logo.
type LogoText struct {
	Value          string `json:"value"           yaml:"value"`
	Color          string `json:"color"           yaml:"color"`
	DefaultValue   string `json:"default_value"   yaml:"default_value"`
	DefaultColor   string `json:"default_color"   yaml:"default_color"`
	FormattedValue string `json:"formatted_value" yaml:"formatted_value"`
}

// LogoGradient is the background of a gradient logo.
type LogoGradient struct {
	From  string `json:"from"  yaml:"from"`
	To    string `json:"to"    yaml:"to"`
	Angle string `json:"angle" yaml:"angle"`
}

// LogoImageSet holds the uploaded logo. Installations without an upload
// send "original" as an empty array, which decodes to an absent image.
type LogoImageSet struct {
	Original webasyst.FailSafe[LogoImage] `json:"original" yaml:"-"`
}

// LogoImage is one rendition of an uploaded logo.
type LogoImage struct {
	URL    string `json:"url"    yaml:"url"`
	Width  int    `json:"width"  yaml:"width"`
	Height int    `json:"height" yaml:"height"`
}

// IsGradient reports whether the logo is drawn from text and gradient.
func (l *Logo) IsGradient() bool {
	return l != nil && l.Mode == LogoModeGradient
}

// OriginalImage returns the uploaded logo, if one decoded.
func (l *Logo) OriginalImage() (LogoImage, bool) {
	if l == nil || l.Image == nil {
		return LogoImage{}, false
	}

	return l.Image.Original.Get()
}
