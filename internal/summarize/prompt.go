package summarize

import (
	"fmt"
	"strings"

	"github.com/starford/vocanote/internal/models"
)

// Length is the requested size of a summary.
type Length string

// Supported summary lengths.
const (
	Brief    Length = "brief"
	Medium   Length = "medium"
	Detailed Length = "detailed"
)

// ParseLength maps s to a Length. Unknown values fall back to Brief.
func ParseLength(s string) Length {
	switch l := Length(strings.ToLower(strings.TrimSpace(s))); l {
	case Brief, Medium, Detailed:
		return l
	default:
		return Brief
	}
}

type localized struct {
	summary  string
	keywords string
}

// localizedPrompts holds the native-language instructions prepended for
// languages with dedicated support. Other languages get English prompts.
var localizedPrompts = map[string]localized{
	"Hindi": {
		summary:  "कृपया इस पाठ का सारांश दें और मुख्य बिंदुओं को हाइलाइट करें।",
		keywords: "इस पाठ से महत्वपूर्ण कीवर्ड्स निकालें।",
	},
	"Kannada": {
		summary:  "ದಯವಿಟ್ಟು ಈ ಪಠ್ಯದ ಸಾರಾಂಶವನ್ನು ನೀಡಿ ಮತ್ತು ಪ್ರಮುಖ ಅಂಶಗಳನ್ನು ಹೈಲೈಟ್ ಮಾಡಿ.",
		keywords: "ಈ ಪಠ್ಯದಿಂದ ಪ್ರಮುಖ ಕೀವರ್ಡ್‌ಗಳನ್ನು ಹೊರತೆಗೆಯಿರಿ.",
	},
}

// KnownLanguages lists the languages with localized prompting, English first.
func KnownLanguages() []string {
	return []string{models.DefaultLanguage, "Hindi", "Kannada"}
}

// CanonicalLanguage returns the known spelling of name when it matches a
// supported language case-insensitively, and the trimmed name otherwise.
// An empty name is models.DefaultLanguage.
func CanonicalLanguage(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.DefaultLanguage
	}
	for _, known := range KnownLanguages() {
		if strings.EqualFold(name, known) {
			return known
		}
	}
	return name
}

func summaryPrompt(text string, length Length, language string) string {
	var b strings.Builder
	loc, ok := localizedPrompts[language]
	if ok {
		b.WriteString(loc.summary)
		b.WriteString("\n\n")
		fmt.Fprintf(&b, "Please provide a %s summary of the following text in both %s and English.\n\n", length, language)
	} else {
		fmt.Fprintf(&b, "Please provide a %s summary of the following text in English.\n\n", length)
	}
	b.WriteString("Requirements:\n")
	fmt.Fprintf(&b, "1. Length: %s summary\n", length)
	b.WriteString("2. Main focus: Key ideas and central themes\n")
	b.WriteString("3. Style: Clear and concise language\n")
	if ok {
		fmt.Fprintf(&b, "4. Format: First in %s, then in English\n", language)
	}
	b.WriteString("\nText to summarize:\n")
	b.WriteString(text)
	return b.String()
}

func keywordPrompt(text, language string) string {
	var b strings.Builder
	loc, ok := localizedPrompts[language]
	if ok {
		b.WriteString(loc.keywords)
		b.WriteString("\n\n")
	}
	b.WriteString("Extract 5-7 of the most important keywords or key phrases from this text.\n\n")
	b.WriteString("Requirements:\n")
	b.WriteString("1. Format: One keyword/phrase per line\n")
	b.WriteString("2. No numbers or bullet points\n")
	b.WriteString("3. Include technical terms if present\n")
	if ok {
		fmt.Fprintf(&b, "4. For each term, provide the original %s term followed by the English translation in parentheses\n", language)
	}
	b.WriteString("\nText to analyze:\n")
	b.WriteString(text)
	return b.String()
}
