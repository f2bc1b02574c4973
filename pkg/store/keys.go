package store

import "fmt"

// Key schema. All ids are opaque strings validated upstream to exclude the
// ':' and '|' separator bytes.
//
//	user:<id>:profile                      -> models.User
//	user:<id>:conv:<convID>                -> "" (membership index)
//	conv:<id>:meta                         -> models.Conversation
//	conv:<id>:msg:<ns padded>-<seq padded> -> models.Message (log order)
//	pair:<lo>|<hi>                         -> convID (pair uniqueness index)
//	msgid:<id>                             -> ordered message key
//	read:<convID>:<userID>                 -> unix-nano watermark
//	react:<msgID>:<ns padded>-<seq padded> -> models.Reaction (insertion order)
//	reactidx:<msgID>:<userID>:<emoji>      -> reaction row key
//	typing:<convID>:<userID>               -> models.TypingSignal
//	presence:<userID>                      -> unix-nano last active

func UserKey(userID string) string { return "user:" + userID + ":profile" }

// UserPrefix spans all user records; callers filter on the :profile suffix
// to skip membership keys sharing the namespace.
const UserPrefix = "user:"

const UserProfileSuffix = ":profile"

func UserConvKey(userID, convID string) string { return "user:" + userID + ":conv:" + convID }

func UserConvPrefix(userID string) string { return "user:" + userID + ":conv:" }

func ConvKey(convID string) string { return "conv:" + convID + ":meta" }

// PairKey returns the canonical index key for an unordered user pair.
func PairKey(a, b string) string {
	lo, hi := SortPair(a, b)
	return "pair:" + lo + "|" + hi
}

// SortPair orders two user ids lexicographically.
func SortPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// MsgKey builds the ordered log key for a message. ts is the creation time
// in unix nanos; seq breaks ties within one nanosecond. The seq counter is
// in-process only and restarts at zero, so the timestamp must always lead
// the key; seq gets the full uint64 width so it can never overflow its
// field and disturb the ordering.
func MsgKey(convID string, ts int64, seq uint64) string {
	return fmt.Sprintf("conv:%s:msg:%020d-%020d", convID, ts, seq)
}

func MsgPrefix(convID string) string { return "conv:" + convID + ":msg:" }

func MsgIDKey(msgID string) string { return "msgid:" + msgID }

func ReadKey(convID, userID string) string { return "read:" + convID + ":" + userID }

func ReadPrefix(convID string) string { return "read:" + convID + ":" }

// ReactKey builds the ordered row key for a reaction, shaped like MsgKey:
// the reaction time in unix nanos leads, seq breaks ties within one
// nanosecond. Keying on the timestamp keeps rows from different process
// lifetimes apart even though the seq counter restarts at zero.
func ReactKey(msgID string, ts int64, seq uint64) string {
	return fmt.Sprintf("react:%s:%020d-%020d", msgID, ts, seq)
}

func ReactPrefix(msgID string) string { return "react:" + msgID + ":" }

func ReactIdxKey(msgID, userID, emoji string) string {
	return "reactidx:" + msgID + ":" + userID + ":" + emoji
}

func TypingKey(convID, userID string) string { return "typing:" + convID + ":" + userID }

func TypingPrefix(convID string) string { return "typing:" + convID + ":" }

// TypingAllPrefix spans every typing signal; used by the sweeper only.
const TypingAllPrefix = "typing:"

func PresenceKey(userID string) string { return "presence:" + userID }

const PresencePrefix = "presence:"
