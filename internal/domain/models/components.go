package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ComponentType is the discriminator carried in a component's "component" field.
type ComponentType string

const (
	ComponentMarketTemplate ComponentType = "market_template"
	ComponentFixture        ComponentType = "fixture"
	ComponentFixtureCard    ComponentType = "fixture_card"
	ComponentFixtureTable   ComponentType = "fixture_table"
)

// Placeholders the backend or the controller put in the display text where
// structured components should be rendered instead.
const (
	FixturePlaceholder        = "{unified_fixture_table}"
	MarketTemplatePlaceholder = "{market_template}"
)

// IsFixture reports whether the component renders as fixture data.
func (t ComponentType) IsFixture() bool {
	switch t {
	case ComponentFixture, ComponentFixtureCard, ComponentFixtureTable:
		return true
	}
	return false
}

// FlexString decodes a JSON string, number or boolean into its string form.
// The backend is inconsistent about odds, scores and ids.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(data)
	return nil
}

// String returns the decoded value.
func (f FlexString) String() string {
	return string(f)
}

// Float parses the value as a number.
func (f FlexString) Float() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(string(f)), 64)
}

// Component is one tagged structured block attached to a chat message.
// Its type-specific payload is kept raw and decoded on demand.
type Component struct {
	Type ComponentType
	Raw  json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Component) UnmarshalJSON(data []byte) error {
	var head struct {
		Component ComponentType `json:"component"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	c.Type = head.Component
	c.Raw = append(c.Raw[:0], data...)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c Component) MarshalJSON() ([]byte, error) {
	if len(c.Raw) == 0 {
		return json.Marshal(map[string]ComponentType{"component": c.Type})
	}
	return c.Raw, nil
}

// Bet is one selectable price attached to a fixture.
type Bet struct {
	SelectionName string     `json:"selection_name"`
	PriceFormat   string     `json:"price_format"`
	Price         FlexString `json:"price"`
}

// Fixture is a match with its bets (fixture, fixture_card, fixture_table).
type Fixture struct {
	Component      ComponentType `json:"component"`
	LeagueName     string        `json:"league_name"`
	LeagueID       FlexString    `json:"league_id,omitempty"`
	HomeTeamName   string        `json:"home_team_name"`
	AwayTeamName   string        `json:"away_team_name"`
	HomeTeamLogo   string        `json:"home_team_logo,omitempty"`
	AwayTeamLogo   string        `json:"away_team_logo,omitempty"`
	HomeScore      FlexString    `json:"home_score,omitempty"`
	AwayScore      FlexString    `json:"away_score,omitempty"`
	Status         string        `json:"status"`
	EventStartDate string        `json:"event_start_date"`
	MatchTime      string        `json:"match_time,omitempty"`
	Bets           []Bet         `json:"bets"`
}

// MarketTemplate is a single bet suggestion rendered as a pill.
type MarketTemplate struct {
	Component           ComponentType `json:"component"`
	Odds                FlexString    `json:"odds"`
	SportEventName      string        `json:"sport_event_name"`
	BetDisplayNarrative string        `json:"bet_display_narrative"`
	EventStartTime      string        `json:"event_start_time"`
	LeagueName          string        `json:"league_name,omitempty"`
	HomeTeamLogoURL     string        `json:"home_team_logo_url,omitempty"`
	AwayTeamLogoURL     string        `json:"away_team_logo_url,omitempty"`
	Insight             string        `json:"insight,omitempty"`
	Status              string        `json:"status,omitempty"`
	HomeTeamScore       FlexString    `json:"home_team_score,omitempty"`
	AwayTeamScore       FlexString    `json:"away_team_score,omitempty"`
	MatchTime           string        `json:"match_time,omitempty"`
}

// AsFixture decodes a fixture-like component.
func (c Component) AsFixture() (*Fixture, error) {
	if !c.Type.IsFixture() {
		return nil, fmt.Errorf("component %q is not a fixture", c.Type)
	}
	var f Fixture
	if err := json.Unmarshal(c.Raw, &f); err != nil {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}
	return &f, nil
}

// AsMarketTemplate decodes a market_template component.
func (c Component) AsMarketTemplate() (*MarketTemplate, error) {
	if c.Type != ComponentMarketTemplate {
		return nil, fmt.Errorf("component %q is not a market template", c.Type)
	}
	var m MarketTemplate
	if err := json.Unmarshal(c.Raw, &m); err != nil {
		return nil, fmt.Errorf("failed to decode market template: %w", err)
	}
	return &m, nil
}

// RenderedMessage is a message split into what a renderer draws.
type RenderedMessage struct {
	Message         Message          `json:"message"`
	DisplayText     string           `json:"displayText"`
	MarketTemplates []MarketTemplate `json:"marketTemplates,omitempty"`
	Fixtures        []Fixture        `json:"fixtures,omitempty"`
}

// HasComponents reports whether anything besides text needs rendering.
func (r RenderedMessage) HasComponents() bool {
	return len(r.MarketTemplates) > 0 || len(r.Fixtures) > 0
}

// Render strips placeholders from the text and decodes the components found
// in the message's raw payload. Components that fail to decode are skipped.
func Render(m Message) RenderedMessage {
	out := RenderedMessage{Message: m}

	for _, c := range componentsOf(m.RawData) {
		switch {
		case c.Type == ComponentMarketTemplate:
			if mt, err := c.AsMarketTemplate(); err == nil {
				out.MarketTemplates = append(out.MarketTemplates, *mt)
			}
		case c.Type.IsFixture():
			if f, err := c.AsFixture(); err == nil {
				out.Fixtures = append(out.Fixtures, *f)
			}
		}
	}

	text := strings.ReplaceAll(m.Text, MarketTemplatePlaceholder, "")
	text = strings.ReplaceAll(text, FixturePlaceholder, "")
	out.DisplayText = strings.TrimSpace(text)

	return out
}

// componentsOf extracts the components array from a raw payload, tolerating
// payloads that are not objects or carry no components.
func componentsOf(raw json.RawMessage) []Component {
	if len(raw) == 0 {
		return nil
	}
	var wire struct {
		Components []Component `json:"components"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil
	}
	return wire.Components
}
