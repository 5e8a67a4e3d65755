package storage

type ZodiacSign struct {
	ID           int64  `json:"id"`
	SignName     string `json:"sign_name"`
	StartMonth   int64  `json:"start_month"`
	StartDay     int64  `json:"start_day"`
	EndMonth     int64  `json:"end_month"`
	EndDay       int64  `json:"end_day"`
	Description  string `json:"description"`
	Element      string `json:"element"`
	RulingPlanet string `json:"ruling_planet"`
	Emoji        string `json:"emoji"`
}
