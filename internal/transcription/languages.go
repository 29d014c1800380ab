package transcription

// DefaultLanguage is used when a request names no language
const DefaultLanguage = "en-US"

var supportedLanguages = map[string]string{
	"en-US": "English (US)",
	"en-GB": "English (UK)",
	"es-ES": "Spanish (Spain)",
	"es-MX": "Spanish (Mexico)",
	"fr-FR": "French (France)",
	"de-DE": "German (Germany)",
	"it-IT": "Italian (Italy)",
	"pt-BR": "Portuguese (Brazil)",
	"ru-RU": "Russian (Russia)",
	"ja-JP": "Japanese (Japan)",
	"ko-KR": "Korean (South Korea)",
	"zh-CN": "Chinese (Simplified)",
	"zh-TW": "Chinese (Traditional)",
	"ar-SA": "Arabic (Saudi Arabia)",
	"hi-IN": "Hindi (India)",
	"th-TH": "Thai (Thailand)",
	"vi-VN": "Vietnamese (Vietnam)",
	"nl-NL": "Dutch (Netherlands)",
	"sv-SE": "Swedish (Sweden)",
	"da-DK": "Danish (Denmark)",
	"no-NO": "Norwegian (Norway)",
	"fi-FI": "Finnish (Finland)",
	"pl-PL": "Polish (Poland)",
	"tr-TR": "Turkish (Turkey)",
	"he-IL": "Hebrew (Israel)",
	"cs-CZ": "Czech (Czech Republic)",
	"hu-HU": "Hungarian (Hungary)",
	"ro-RO": "Romanian (Romania)",
	"sk-SK": "Slovak (Slovakia)",
	"bg-BG": "Bulgarian (Bulgaria)",
	"hr-HR": "Croatian (Croatia)",
	"sl-SI": "Slovenian (Slovenia)",
	"et-EE": "Estonian (Estonia)",
	"lv-LV": "Latvian (Latvia)",
	"lt-LT": "Lithuanian (Lithuania)",
	"uk-UA": "Ukrainian (Ukraine)",
}

// SupportedLanguages returns a copy of the language catalog, code to display name
func SupportedLanguages() map[string]string {
	out := make(map[string]string, len(supportedLanguages))
	for code, name := range supportedLanguages {
		out[code] = name
	}
	return out
}

// IsSupportedLanguage reports whether code is in the catalog
func IsSupportedLanguage(code string) bool {
	_, ok := supportedLanguages[code]
	return ok
}
