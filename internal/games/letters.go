package games

import (
	"strings"
	"unicode"
)

// confusedWith lists letters children commonly mix up with the key letter
var confusedWith = map[rune][]rune{
	'A': {'E', 'U', 'O'},
	'B': {'D', 'P'},
	'C': {'K', 'S'},
	'D': {'B', 'P', 'T'},
	'E': {'I', 'A'},
	'F': {'V', 'P'},
	'G': {'J', 'Q'},
	'H': {'N'},
	'I': {'E', 'Y', 'L'},
	'J': {'G'},
	'K': {'C', 'Q'},
	'L': {'I', 'T'},
	'M': {'N', 'W'},
	'N': {'M', 'U', 'H'},
	'O': {'U', 'A'},
	'P': {'B', 'Q', 'D'},
	'Q': {'P', 'G', 'K'},
	'R': {'W'},
	'S': {'C', 'Z'},
	'T': {'D', 'F'},
	'U': {'V', 'N', 'O'},
	'V': {'U', 'W', 'F'},
	'W': {'V', 'M'},
	'X': {'K', 'Z'},
	'Y': {'I'},
	'Z': {'S'},
}

// spokenLetters maps recognised phrases, including common misrecognitions, to letters
var spokenLetters = map[string]rune{
	"a": 'A', "ay": 'A', "eh": 'A', "hey": 'A',
	"b": 'B', "bee": 'B', "be": 'B',
	"c": 'C', "see": 'C', "sea": 'C', "si": 'C',
	"d": 'D', "dee": 'D',
	"e": 'E', "ee": 'E',
	"f": 'F', "ef": 'F', "eff": 'F',
	"g": 'G', "gee": 'G', "jee": 'G',
	"h": 'H', "aitch": 'H', "haitch": 'H', "age": 'H',
	"i": 'I', "eye": 'I', "aye": 'I',
	"j": 'J', "jay": 'J',
	"k": 'K', "kay": 'K', "okay": 'K', "ok": 'K', "cay": 'K',
	"l": 'L', "el": 'L', "elle": 'L', "ell": 'L',
	"m": 'M', "em": 'M',
	"n": 'N', "en": 'N', "and": 'N',
	"o": 'O', "oh": 'O', "owe": 'O',
	"p": 'P', "pee": 'P', "pea": 'P',
	"q": 'Q', "queue": 'Q', "cue": 'Q', "kew": 'Q',
	"r": 'R', "are": 'R', "our": 'R', "ar": 'R',
	"s": 'S', "ess": 'S', "es": 'S',
	"t": 'T', "tee": 'T', "tea": 'T',
	"u": 'U', "you": 'U', "yew": 'U',
	"v": 'V', "vee": 'V',
	"w": 'W', "double you": 'W', "double u": 'W', "doubleyou": 'W',
	"x": 'X', "ex": 'X', "eggs": 'X',
	"y": 'Y', "why": 'Y', "wye": 'Y',
	"z": 'Z', "zed": 'Z', "zee": 'Z',
}

// LetterFromSpeech turns a recognised utterance into a letter. Known phrases go
// through the pronunciation table; anything else yields its first letter.
func LetterFromSpeech(heard string) (rune, bool) {
	phrase := strings.ToLower(strings.TrimSpace(heard))
	phrase = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || r == ' ' {
			return r
		}
		return -1
	}, phrase)
	phrase = strings.Join(strings.Fields(phrase), " ")
	for _, prefix := range []string{"the letter ", "letter ", "capital ", "big ", "small "} {
		phrase = strings.TrimPrefix(phrase, prefix)
	}

	if r, ok := spokenLetters[phrase]; ok {
		return r, true
	}
	for _, r := range phrase {
		if unicode.IsLetter(r) {
			return unicode.ToUpper(r), true
		}
	}
	return 0, false
}
