package ir

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// GridPos is a cell on an owner's page grid.
type GridPos struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// ItemQty is an item id with a positive quantity.
type ItemQty struct {
	Item string `json:"item" yaml:"item"`
	Qty  int64  `json:"qty" yaml:"qty"`
}

// Module is a placed module instance on a user's page.
// It does not represent a stack of module items in inventory.
type Module struct {
	ID                 string     `json:"id"`
	Owner              string     `json:"owner"`
	Item               string     `json:"item"`
	Pos                *GridPos   `json:"pos,omitempty"` // nil when placed off-grid
	LastHarvest        time.Time  `json:"last_harvest"`
	ClicksSinceHarvest int64      `json:"clicks_since_harvest"`
	TotalClicks        int64      `json:"total_clicks"`
	State              SetupState `json:"state"`

	// Trade holds per-instance trade settings for trade-family editors.
	Trade *ItemQty `json:"trade,omitempty"`

	// SetupPaid is exactly what the last successful setup consumed.
	// Teardown refunds this list, not the current catalog cost.
	SetupPaid []ItemQty `json:"setup_paid,omitempty"`
}

// Clickable reports whether visitors may interact with the module.
func (m Module) Clickable() bool {
	return m.State.Clickable()
}

// Profile holds the per-user counters the engine reads and writes.
type Profile struct {
	UserID         string `json:"user_id"`
	AvailableVotes int64  `json:"available_votes"`
	IsNetworker    bool   `json:"is_networker"`
}

// FriendshipStatus is the state of a directed friendship row.
type FriendshipStatus string

const (
	FriendshipPending FriendshipStatus = "pending"
	FriendshipFriend  FriendshipStatus = "friend"
	FriendshipBlocked FriendshipStatus = "blocked"
)

// ValidFriendshipStatuses defines allowed friendship states.
var ValidFriendshipStatuses = map[FriendshipStatus]bool{
	FriendshipPending: true,
	FriendshipFriend:  true,
	FriendshipBlocked: true,
}

// Friendship is a directed relation between two users.
type Friendship struct {
	From   string           `json:"from"`
	To     string           `json:"to"`
	Status FriendshipStatus `json:"status"`
}

// Message is a templated message from one user to another.
type Message struct {
	ID        int64     `json:"id,omitempty"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Template  string    `json:"template"`
	SentAt    time.Time `json:"sent_at"`
}

// InteractionKind names a committed engine operation.
type InteractionKind string

const (
	KindPlace    InteractionKind = "place"
	KindRemove   InteractionKind = "remove"
	KindSetup    InteractionKind = "setup"
	KindTeardown InteractionKind = "teardown"
	KindHarvest  InteractionKind = "harvest"
	KindClick    InteractionKind = "click"
	KindPrize    InteractionKind = "prize"
	KindTrade    InteractionKind = "trade"
)

// Interaction is an append-only audit record of a committed operation.
type Interaction struct {
	ID       string          `json:"id"` // Content-addressed hash
	Token    string          `json:"token"`
	Kind     InteractionKind `json:"kind"`
	ModuleID string          `json:"module_id"`
	Actor    string          `json:"actor"`
	Detail   Object          `json:"detail"`
	At       time.Time       `json:"at"`
}

// NormalizeUserID returns the canonical form of a user id: NFC normalised,
// surrounding whitespace trimmed.
func NormalizeUserID(id string) string {
	return norm.NFC.String(strings.TrimSpace(id))
}
