package models

import "time"

// Instance lifecycle status
const (
	StatusOpen   = "OPEN"
	StatusClosed = "CLOSED"
)

// Poll kind constants
const (
	PollTypeSingle = "SINGLE"
	PollTypeRanked = "RANKED"
)

// Audience scope constants
const (
	AudiencePublic   = "PUBLIC"
	AudienceUserOnly = "USER_ONLY"
)

// DateLayout is the wire and storage format for poll dates.
const DateLayout = "2006-01-02"

// Request types

type SubmitVoteRequest struct {
	RankedChoices  []string `json:"rankedChoices"`
	IdempotencyKey string   `json:"idempotencyKey,omitempty"`
	TurnstileToken string   `json:"turnstileToken,omitempty"`
	Survey
}

// Survey holds the optional self-reported demographic answers attached to a
// vote. Every field is nullable; participation is voluntary.
type Survey struct {
	AgeRange          *string `db:"age_range" json:"ageRange,omitempty"`
	Gender            *string `db:"gender" json:"gender,omitempty"`
	Race              *string `db:"race" json:"race,omitempty"`
	Ethnicity         *string `db:"ethnicity" json:"ethnicity,omitempty"`
	StateCode         *string `db:"state_code" json:"state,omitempty"`
	CommunityType     *string `db:"community_type" json:"communityType,omitempty"`
	PoliticalParty    *string `db:"political_party" json:"politicalParty,omitempty"`
	PoliticalIdeology *string `db:"political_ideology" json:"politicalIdeology,omitempty"`
	Religion          *string `db:"religion" json:"religion,omitempty"`
	EducationLevel    *string `db:"education_level" json:"educationLevel,omitempty"`
}

type RolloverRequest struct {
	Date string `json:"date,omitempty"`
}

type CloseRequest struct {
	Date  string `json:"date,omitempty"`
	Sweep bool   `json:"sweep,omitempty"`
}

type ReplaceInstanceRequest struct {
	Date string `json:"date,omitempty"`
}

// Response types

type SubmitVoteResponse struct {
	Ok      bool `json:"ok"`
	Deduped bool `json:"deduped,omitempty"`
}

type RolloverResponse struct {
	Date    string `json:"date"`
	Created int    `json:"created"`
}

type CloseResponse struct {
	Date      string `json:"date"`
	Snapshots int    `json:"snapshots"`
	Closed    int    `json:"closed"`
}

type SnapshotResponse struct {
	PollID  string `json:"pollId"`
	Written bool   `json:"written"`
}

type ReplaceInstanceResponse struct {
	Removed  int      `json:"removed"`
	Instance Instance `json:"instance"`
}

type MissingSnapshotsResponse struct {
	Count int        `json:"count"`
	Polls []PollCard `json:"polls"`
}

type HealthResponse struct {
	Ok     bool   `json:"ok"`
	Status string `json:"status"`
}

type ReadyResponse struct {
	Ok         bool              `json:"ok"`
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// Domain types

type Category struct {
	ID        string `db:"id" json:"id"`
	Key       string `db:"key" json:"key"`
	Name      string `db:"name" json:"name"`
	SortOrder int    `db:"sort_order" json:"sortOrder"`
}

type Template struct {
	ID           string  `db:"id" json:"id"`
	CategoryID   string  `db:"category_id" json:"categoryId"`
	Key          string  `db:"key" json:"key"`
	Title        string  `db:"title" json:"title"`
	Question     *string `db:"question" json:"question,omitempty"`
	PollType     string  `db:"poll_type" json:"pollType"`
	MaxRank      *int    `db:"max_rank" json:"maxRank,omitempty"`
	Audience     string  `db:"audience" json:"audience"`
	IsActive     bool    `db:"is_active" json:"isActive"`
	DurationDays int     `db:"duration_days" json:"durationDays"`

	Options []TemplateOption `db:"-" json:"options,omitempty"`
}

type TemplateOption struct {
	ID         string `db:"id" json:"id"`
	TemplateID string `db:"template_id" json:"-"`
	Label      string `db:"label" json:"label"`
	SortOrder  int    `db:"sort_order" json:"sortOrder"`
}

type Plan struct {
	ID               string    `db:"id" json:"id"`
	TemplateID       string    `db:"template_id" json:"templateId"`
	PlanDate         time.Time `db:"plan_date" json:"planDate"`
	Enabled          bool      `db:"enabled" json:"enabled"`
	QuestionOverride *string   `db:"question_override" json:"questionOverride,omitempty"`

	Options []PlanOption `db:"-" json:"options,omitempty"`
}

type PlanOption struct {
	ID        string `db:"id" json:"id"`
	PlanID    string `db:"plan_id" json:"-"`
	Label     string `db:"label" json:"label"`
	SortOrder int    `db:"sort_order" json:"sortOrder"`
}

type Instance struct {
	ID         string    `db:"id" json:"id"`
	TemplateID string    `db:"template_id" json:"templateId"`
	CategoryID string    `db:"category_id" json:"categoryId"`
	PollDate   time.Time `db:"poll_date" json:"pollDate"`
	CloseDate  time.Time `db:"close_date" json:"closeDate"`
	Title      string    `db:"title" json:"title"`
	Question   *string   `db:"question" json:"question,omitempty"`
	PollType   string    `db:"poll_type" json:"pollType"`
	MaxRank    *int      `db:"max_rank" json:"maxRank,omitempty"`
	Audience   string    `db:"audience" json:"audience"`
	Status     string    `db:"status" json:"status"`

	Options []InstanceOption `db:"-" json:"options,omitempty"`
}

type InstanceOption struct {
	ID         string `db:"id" json:"id"`
	InstanceID string `db:"instance_id" json:"-"`
	Label      string `db:"label" json:"label"`
	SortOrder  int    `db:"sort_order" json:"sortOrder"`
}

type Ballot struct {
	ID                  string    `db:"id" json:"id"`
	InstanceID          string    `db:"instance_id" json:"instanceId"`
	VoterTokenHash      string    `db:"voter_token_hash" json:"-"` // Never expose in JSON
	IPHash              string    `db:"ip_hash" json:"-"`          // Never expose in JSON
	UserAgentHash       *string   `db:"user_agent_hash" json:"-"`  // Never expose in JSON
	CountryCode         *string   `db:"country_code" json:"-"`
	RegionCode          *string   `db:"region_code" json:"-"`
	FirstChoiceOptionID *string   `db:"first_choice_option_id" json:"firstChoiceOptionId,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"createdAt"`

	Survey
}

type Ranking struct {
	ID       string `db:"id" json:"id"`
	BallotID string `db:"ballot_id" json:"ballotId"`
	Rank     int    `db:"rank" json:"rank"`
	OptionID string `db:"option_id" json:"optionId"`
}

// ResultSnapshot freezes one instance's full tally payload. ResultsJSON is the
// canonical bytes served to readers; the remaining columns are denormalized
// for querying without unpacking the payload.
type ResultSnapshot struct {
	ID             string    `db:"id" json:"id"`
	InstanceID     string    `db:"instance_id" json:"pollId"`
	ResultsJSON    []byte    `db:"results_json" json:"-"`
	TotalVotes     *int      `db:"total_votes" json:"totalVotes,omitempty"`
	TotalBallots   *int      `db:"total_ballots" json:"totalBallots,omitempty"`
	WinnerOptionID *string   `db:"winner_option_id" json:"winnerOptionId"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// Tally output types

// TallyRound records one instant-runoff round. Totals includes every option
// still active that round, zero-tallied options included. Eliminated is null
// on the terminal round.
type TallyRound struct {
	Round      int            `json:"round"`
	Totals     map[string]int `json:"totals"`
	Eliminated *string        `json:"eliminated"`
	Exhausted  int            `json:"exhausted"`
}

type RankedTally struct {
	WinnerOptionID *string
	Rounds         []TallyRound
	TotalBallots   int
}

type OptionTally struct {
	OptionID string
	Count    int
}

// Result payload types (persisted snapshot contract; keys must stay stable)

type ResultsBase struct {
	PollID   string       `json:"pollId"`
	PollDate string       `json:"pollDate"`
	Title    string       `json:"title"`
	Question *string      `json:"question"`
	PollType string       `json:"pollType"`
	MaxRank  *int         `json:"maxRank"`
	Audience string       `json:"audience"`
	Status   string       `json:"status"`
	Options  []OptionInfo `json:"options"`
}

type OptionInfo struct {
	OptionID  string `json:"optionId"`
	Label     string `json:"label"`
	SortOrder int    `json:"sortOrder"`
}

type OptionCount struct {
	OptionID string `json:"optionId"`
	Label    string `json:"label"`
	Count    int    `json:"count"`
}

type SingleResults struct {
	ResultsBase
	TotalVotes     int           `json:"totalVotes"`
	WinnerOptionID *string       `json:"winnerOptionId"`
	Results        []OptionCount `json:"results"`
}

type RankedResults struct {
	ResultsBase
	TotalBallots   int          `json:"totalBallots"`
	WinnerOptionID *string      `json:"winnerOptionId"`
	Rounds         []TallyRound `json:"rounds"`
}

// Listing and history payload types

type DailyPolls struct {
	Date       string          `json:"date"`
	Categories []CategoryPolls `json:"categories"`
}

type CategoryPolls struct {
	CategoryID string     `json:"categoryId"`
	Key        string     `json:"key"`
	Name       string     `json:"name"`
	Polls      []PollCard `json:"polls"`
}

// PollCard is the tally-free public view of an instance used in listings.
type PollCard struct {
	PollID    string       `json:"pollId"`
	PollDate  string       `json:"pollDate"`
	CloseDate string       `json:"closeDate"`
	Title     string       `json:"title"`
	Question  *string      `json:"question"`
	PollType  string       `json:"pollType"`
	MaxRank   *int         `json:"maxRank,omitempty"`
	Audience  string       `json:"audience"`
	Status    string       `json:"status"`
	Options   []OptionInfo `json:"options"`
}

type TemplateHistory struct {
	TemplateID string         `json:"templateId"`
	Title      string         `json:"title"`
	Entries    []HistoryEntry `json:"entries"`
}

type HistoryEntry struct {
	PollID         string  `json:"pollId"`
	PollDate       string  `json:"pollDate"`
	TotalVotes     *int    `json:"totalVotes,omitempty"`
	TotalBallots   *int    `json:"totalBallots,omitempty"`
	WinnerOptionID *string `json:"winnerOptionId"`
	WinnerLabel    *string `json:"winnerLabel,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
