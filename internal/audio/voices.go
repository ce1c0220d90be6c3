package audio

import (
	"sort"
	"strings"
)

// Voice is a synthetic voice offered by a speech backend
type Voice struct {
	Name       string
	Lang       string
	Identifier string // value passed to the backend to select the voice
	Local      bool   // synthesised on this machine rather than by a service
}

// preferredVoices are well-known high quality voices, best first
var preferredVoices = []string{
	// Google WaveNet/Neural
	"Google US English",
	"Google UK English Female",
	"Google UK English Male",
	"Google español de Estados Unidos",

	// Microsoft Azure
	"Microsoft Zira Desktop",
	"Microsoft David Desktop",
	"Microsoft Mark Desktop",
	"Microsoft Sonia",

	// Apple
	"Samantha",
	"Alex",
	"Karen",
	"Daniel",
	"Moira",
	"Tessa",
	"Veena",

	// Amazon Polly
	"Joanna",
	"Matthew",
	"Ivy",
	"Justin",
	"Kendra",

	"Google Noto Sans",
	"Google UK English",
	"Microsoft Hazel Desktop",
}

// voicePriority guesses voice quality from naming conventions
func voicePriority(voiceName string) int {
	name := strings.ToLower(voiceName)

	switch {
	case strings.Contains(name, "neural"), strings.Contains(name, "wave"), strings.Contains(name, "premium"):
		return 10
	case strings.Contains(name, "google"):
		return 9
	case strings.Contains(name, "microsoft") && !strings.Contains(name, "desktop"):
		return 8
	case strings.Contains(name, "amazon"), strings.Contains(name, "polly"):
		return 8
	case strings.Contains(name, "azure"), strings.Contains(name, "cognitive"):
		return 8
	case strings.Contains(name, "microsoft"):
		return 7
	case strings.Contains(name, "samantha"), strings.Contains(name, "alex"), strings.Contains(name, "karen"):
		return 7
	case strings.Contains(name, "native"):
		return 6
	case strings.Contains(name, "local"):
		return 5
	default:
		return 1
	}
}

// BestVoice picks the voice to speak English words with. A preferred voice
// wins outright; otherwise English voices are ranked remote first, then by
// name priority. It reports false when there is no English voice.
func BestVoice(voices []Voice) (Voice, bool) {
	for _, preferred := range preferredVoices {
		for _, v := range voices {
			if strings.Contains(v.Name, preferred) {
				return v, true
			}
		}
	}

	var english []Voice
	for _, v := range voices {
		if strings.HasPrefix(strings.ToLower(v.Lang), "en") {
			english = append(english, v)
		}
	}
	sort.SliceStable(english, func(i, j int) bool {
		a, b := english[i], english[j]
		if a.Local != b.Local {
			return !a.Local
		}
		return voicePriority(a.Name) > voicePriority(b.Name)
	})

	if len(english) == 0 {
		return Voice{}, false
	}
	return english[0], true
}
