package models

// Side is the side of a two-way market a consensus picks
type Side string

// Consensus sides
const (
	SidePrimary  Side = "primary"
	SideOpponent Side = "opponent"
)

// ConsensusResult is the combined call of several models for one game and target
type ConsensusResult struct {
	Target             string  `json:"target"`
	PrimaryPercentage  float64 `json:"primary_percentage"`
	OpponentPercentage float64 `json:"opponent_percentage"`
	Confidence         float64 `json:"confidence"`
	Models             int     `json:"models"`
	PredictedSide      Side    `json:"predicted_side"`
	PredictedLabel     string  `json:"predicted_label"`
}
