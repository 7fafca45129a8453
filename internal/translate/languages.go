package translate

// Target languages offered by the UI.
var supportedLanguages = []string{
	"French", "Spanish", "German", "Italian",
	"Chinese", "Japanese", "Korean", "Russian",
	"English",
}

// SupportedLanguages returns the selectable target languages.
func SupportedLanguages() []string {
	out := make([]string, len(supportedLanguages))
	copy(out, supportedLanguages)
	return out
}

// IsSupported reports whether lang is a selectable target language.
func IsSupported(lang string) bool {
	for _, l := range supportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}
