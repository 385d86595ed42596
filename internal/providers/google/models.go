package google

type findPlaceResponse struct {
	Candidates []struct {
		PlaceID string `json:"place_id"`
	} `json:"candidates"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

type detailsResponse struct {
	Result       placeResult `json:"result"`
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message"`
}

type placeResult struct {
	Photos []struct {
		PhotoReference string `json:"photo_reference"`
	} `json:"photos"`
	Rating               *float64      `json:"rating"`
	FormattedPhoneNumber string        `json:"formatted_phone_number"`
	OpeningHours         *openingHours `json:"opening_hours"`
}

type openingHours struct {
	OpenNow     bool     `json:"open_now"`
	WeekdayText []string `json:"weekday_text"`
}
