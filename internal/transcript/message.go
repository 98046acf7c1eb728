// internal/transcript/message.go
//
// A transcript is the append-only record of one simulation: every turn adds
// exactly one message. The driver owns the history; every other component
// only ever sees a copied snapshot.

package transcript

import (
	"time"

	"github.com/kingrea/kallipolis/internal/council"
)

// SeedSpeaker is the pseudo-role attributed to the external task prompt that
// opens a session. It is never part of the roster.
const SeedSpeaker council.RoleID = "user"

// Message is one turn of the exchange. Seq is strictly increasing and
// assigned by the history on append.
type Message struct {
	Speaker   council.RoleID `json:"speaker"`
	Text      string         `json:"text"`
	Seq       int            `json:"seq"`
	Timestamp time.Time      `json:"timestamp"`
}

// History holds the ordered message sequence for one session.
type History struct {
	messages []Message
}

// Append records a new message, stamping its sequence number and timestamp,
// and returns the stored value.
func (h *History) Append(speaker council.RoleID, text string) Message {
	msg := Message{
		Speaker:   speaker,
		Text:      text,
		Seq:       len(h.messages) + 1,
		Timestamp: time.Now().UTC(),
	}
	h.messages = append(h.messages, msg)
	return msg
}

// Len reports how many turns have been recorded.
func (h *History) Len() int {
	return len(h.messages)
}

// Last returns the most recent message, if any.
func (h *History) Last() (Message, bool) {
	if len(h.messages) == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}

// Messages returns a copy of the full sequence. Callers may inspect but
// never mutate the driver's history through it.
func (h *History) Messages() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// LastFrom returns the most recent message whose speaker matches the given
// category within the provided roster.
func LastFrom(messages []Message, roster *council.Roster, category council.Category) (Message, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if roster.Category(messages[i].Speaker) == category {
			return messages[i], true
		}
	}
	return Message{}, false
}
