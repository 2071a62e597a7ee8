package core

import "time"

// TripRequest is the structured intake extracted from a client's free-form
// charter enquiry by the analysis worker.
type TripRequest struct {
	DepartureAirport string    `json:"departure_airport"`
	ArrivalAirport   string    `json:"arrival_airport"`
	DepartureDate    string    `json:"departure_date"` // ISO 8601 date
	ReturnDate       string    `json:"return_date,omitempty"`
	Passengers       int       `json:"passengers"`
	ClientEmail      string    `json:"client_email"`
	Notes            string    `json:"notes,omitempty"`
	ReceivedAt       time.Time `json:"received_at"`
}

// Validate checks the fields without which no search can be performed.
// Returns a *ValidationError naming the first missing field.
func (r *TripRequest) Validate() error {
	switch {
	case r.DepartureAirport == "":
		return NewValidationError("departure_airport")
	case r.ArrivalAirport == "":
		return NewValidationError("arrival_airport")
	case r.DepartureDate == "":
		return NewValidationError("departure_date")
	case r.Passengers <= 0:
		return &ValidationError{Field: "passengers", Message: "must be positive"}
	}
	return nil
}

// ClientProfile is the CRM record fetched for the requesting client.
type ClientProfile struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Company     string            `json:"company,omitempty"`
	Preferences map[string]string `json:"preferences,omitempty"`
}

// FlightOption is a candidate aircraft/route returned by the marketplace
// search.
type FlightOption struct {
	ID               string    `json:"id"`
	Operator         string    `json:"operator"`
	Aircraft         string    `json:"aircraft"`
	DepartureAirport string    `json:"departure_airport"`
	ArrivalAirport   string    `json:"arrival_airport"`
	Departure        time.Time `json:"departure"`
	Arrival          time.Time `json:"arrival"`
	Seats            int       `json:"seats"`
}

// Quote is an operator's priced offer for a flight option.
type Quote struct {
	ID             string    `json:"id"`
	FlightOptionID string    `json:"flight_option_id"`
	Operator       string    `json:"operator"`
	Aircraft       string    `json:"aircraft"`
	PriceUSD       float64   `json:"price_usd"`
	ValidUntil     time.Time `json:"valid_until"`
	ReceivedAt     time.Time `json:"received_at"`
}

// RankedQuote is a quote scored and ordered by the ranking worker.
type RankedQuote struct {
	Quote     Quote   `json:"quote"`
	Rank      int     `json:"rank"`
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale,omitempty"`
}

// ProposalEmail is the drafted client-facing proposal.
type ProposalEmail struct {
	To       string   `json:"to"`
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	QuoteIDs []string `json:"quote_ids,omitempty"`
}
