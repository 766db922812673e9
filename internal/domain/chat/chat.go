package chat

import (
	"sort"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ParticipantInfo struct {
	Name  string `bson:"name" json:"name"`
	Color string `bson:"color" json:"color"`
}

// Chat is one conversation per unordered pair of players.
type Chat struct {
	ID              primitive.ObjectID         `bson:"_id,omitempty" json:"id"`
	Participants    []string                   `bson:"participants" json:"participants"`
	PairKey         string                     `bson:"pairKey" json:"-"`
	ParticipantInfo map[string]ParticipantInfo `bson:"participantInfo" json:"participantInfo"`
	LastMessage     string                     `bson:"lastMessage,omitempty" json:"lastMessage,omitempty"`
	LastMessageAt   *time.Time                 `bson:"lastMessageAt,omitempty" json:"lastMessageAt,omitempty"`
	CreatedAt       time.Time                  `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time                  `bson:"updatedAt" json:"updatedAt"`
}

func (c *Chat) HasParticipant(playerID string) bool {
	if c == nil {
		return false
	}
	for _, p := range c.Participants {
		if p == playerID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the id that is not playerID.
func (c *Chat) OtherParticipant(playerID string) string {
	if c == nil {
		return ""
	}
	for _, p := range c.Participants {
		if p != playerID {
			return p
		}
	}
	return ""
}

type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChatID     primitive.ObjectID `bson:"chatId" json:"chatId"`
	SenderID   string             `bson:"senderId" json:"senderId"`
	SenderName string             `bson:"senderName" json:"senderName"`
	Content    string             `bson:"content" json:"content"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// PairKey is the unique key of the chat between a and b: the byte length of
// the lower id, ":", then both sorted ids joined by "|". The length prefix
// keeps ids that contain "|" from colliding.
func PairKey(a, b string) string {
	pair := SortedPair(a, b)
	return strconv.Itoa(len(pair[0])) + ":" + pair[0] + "|" + pair[1]
}

// SortedPair orders two player ids so (a,b) and (b,a) map to one chat.
func SortedPair(a, b string) []string {
	pair := []string{a, b}
	sort.Strings(pair)
	return pair
}
