/*
Package friends holds the friend panel state: friends, pending requests in both directions,
and the discover list annotated with each user's relationship to the signed-in user.

The state is local to the panel. It is refreshed from the backend when the panel opens or
changes tab, and after each action; push events do not update it.
*/
package friends

import "chatterm/internal/app/user"

// Request is a directional friend request between UserA and UserB.
type Request struct {
	ID      int64     `json:"id"`
	UserAID int64     `json:"userAId"`
	UserBID int64     `json:"userBId"`
	UserA   user.User `json:"userA"`
	UserB   user.User `json:"userB"`

	// Requester is the user who sent the request. Incoming requests always carry it.
	Requester user.User `json:"requester"`
}

// OutgoingTarget returns the user on the other side of req from me.
func OutgoingTarget(req Request, me int64) user.User {
	if req.UserAID == me {
		return req.UserB
	}
	return req.UserA
}

// Tab is a section of the friend panel.
type Tab string

const (
	TabFriends  Tab = "friends"
	TabRequests Tab = "requests"
	TabDiscover Tab = "discover"
)

// Tabs lists the panel sections in display order.
var Tabs = []Tab{TabFriends, TabRequests, TabDiscover}

// Relation is how a discovered user relates to the signed-in user.
type Relation int

const (
	// RelationNone means a request can be sent.
	RelationNone Relation = iota

	// RelationSelf is the signed-in user.
	RelationSelf

	// RelationFriend means the users are already friends.
	RelationFriend

	// RelationPending means the signed-in user has an outgoing request to them.
	RelationPending

	// RelationIncoming means they have sent the signed-in user a request.
	RelationIncoming
)

func (r Relation) String() string {
	switch r {
	case RelationSelf:
		return "you"
	case RelationFriend:
		return "friend"
	case RelationPending:
		return "pending"
	case RelationIncoming:
		return "wants to connect"
	default:
		return ""
	}
}

// Entry is one row of the discover list.
type Entry struct {
	User     user.User
	Relation Relation
}
