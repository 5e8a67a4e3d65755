package core

// DefaultSigns returns the twelve tropical zodiac signs in calendar order
// starting from Aries. Capricorn is the only range crossing the year boundary.
func DefaultSigns() []Sign {
	return []Sign{
		{"Aries", MonthDay{3, 21}, MonthDay{4, 19}, "Bold, ambitious, and adventurous. Natural leaders who love challenges.", "Fire", "Mars", "♈"},
		{"Taurus", MonthDay{4, 20}, MonthDay{5, 20}, "Reliable, patient, and practical. Values stability and enjoys luxury.", "Earth", "Venus", "♉"},
		{"Gemini", MonthDay{5, 21}, MonthDay{6, 20}, "Curious, adaptable, and communicative. Quick-witted and social.", "Air", "Mercury", "♊"},
		{"Cancer", MonthDay{6, 21}, MonthDay{7, 22}, "Nurturing, emotional, and intuitive. Strong connection to family and home.", "Water", "Moon", "♋"},
		{"Leo", MonthDay{7, 23}, MonthDay{8, 22}, "Confident, generous, and dramatic. Natural performers who love attention.", "Fire", "Sun", "♌"},
		{"Virgo", MonthDay{8, 23}, MonthDay{9, 22}, "Analytical, practical, and detail-oriented. Perfectionist with strong work ethic.", "Earth", "Mercury", "♍"},
		{"Libra", MonthDay{9, 23}, MonthDay{10, 22}, "Diplomatic, charming, and fair-minded. Seeks balance and harmony.", "Air", "Venus", "♎"},
		{"Scorpio", MonthDay{10, 23}, MonthDay{11, 21}, "Intense, passionate, and mysterious. Deep emotional and intuitive nature.", "Water", "Pluto", "♏"},
		{"Sagittarius", MonthDay{11, 22}, MonthDay{12, 21}, "Optimistic, adventurous, and philosophical. Loves freedom and exploration.", "Fire", "Jupiter", "♐"},
		{"Capricorn", MonthDay{12, 22}, MonthDay{1, 19}, "Ambitious, disciplined, and practical. Strong sense of responsibility and tradition.", "Earth", "Saturn", "♑"},
		{"Aquarius", MonthDay{1, 20}, MonthDay{2, 18}, "Independent, innovative, and humanitarian. Forward-thinking and unique.", "Air", "Uranus", "♒"},
		{"Pisces", MonthDay{2, 19}, MonthDay{3, 20}, "Compassionate, artistic, and intuitive. Deeply emotional and imaginative.", "Water", "Neptune", "♓"},
	}
}

// DefaultTable builds a Table from DefaultSigns.
func DefaultTable() Table {
	return NewTable(DefaultSigns())
}

var elementFacts = map[string]string{
	"Fire":  "🔥 Fire signs are passionate, dynamic, and energetic!",
	"Earth": "🌍 Earth signs are practical, stable, and grounded!",
	"Air":   "💨 Air signs are intellectual, communicative, and social!",
	"Water": "🌊 Water signs are emotional, intuitive, and empathetic!",
}

// ElementFact returns the short blurb shown for an element, if one exists.
func ElementFact(element string) (string, bool) {
	fact, ok := elementFacts[element]
	return fact, ok
}
