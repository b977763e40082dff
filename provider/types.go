package provider

import "encoding/json"

// Identity is the Facebook user behind a credential together with the
// permissions they granted this app.
type Identity struct {
	ProviderUserID string   `json:"id"`
	DisplayName    string   `json:"name"`
	GrantedScopes  []string `json:"permissions"`
	DeclinedScopes []string `json:"declined_permissions,omitempty"`
}

type AdAccount struct {
	ID            string `json:"id"`
	AccountID     string `json:"account_id,omitempty"`
	Name          string `json:"name,omitempty"`
	AccountStatus int    `json:"account_status,omitempty"`
	Currency      string `json:"currency,omitempty"`
	TimezoneName  string `json:"timezone_name,omitempty"`
}

type Campaign struct {
	ID              string `json:"id"`
	Name            string `json:"name,omitempty"`
	Status          string `json:"status,omitempty"`
	EffectiveStatus string `json:"effective_status,omitempty"`
	Objective       string `json:"objective,omitempty"`
	DailyBudget     string `json:"daily_budget,omitempty"`
	LifetimeBudget  string `json:"lifetime_budget,omitempty"`
	CreatedTime     string `json:"created_time,omitempty"`
	UpdatedTime     string `json:"updated_time,omitempty"`
}

type AdCreative struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	Title        string `json:"title,omitempty"`
	Body         string `json:"body,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
}

type Ad struct {
	ID              string      `json:"id"`
	Name            string      `json:"name,omitempty"`
	Status          string      `json:"status,omitempty"`
	EffectiveStatus string      `json:"effective_status,omitempty"`
	AdSetID         string      `json:"adset_id,omitempty"`
	CampaignID      string      `json:"campaign_id,omitempty"`
	Creative        *AdCreative `json:"creative,omitempty"`
	CreatedTime     string      `json:"created_time,omitempty"`
}

// PageRequest asks for one page of a Graph edge such as "me/adaccounts" or
// "act_123/campaigns".
type PageRequest struct {
	Edge   string
	Fields []string
	After  string
	Limit  int
}

// Page is one page of raw Graph records. NextCursor is empty on the last page.
type Page struct {
	Data       []json.RawMessage
	NextCursor string
}

func (p Page) HasMore() bool {
	return p.NextCursor != ""
}
