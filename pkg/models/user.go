package models

// User mirrors a profile owned by the external identity provider. ID is an
// opaque stable identifier issued elsewhere; this service never invents or
// deletes user ids, it only caches profile fields alongside activity state.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	// LastActiveAt is a unix-nano heartbeat timestamp; online status is
	// derived from it at read time, never stored.
	LastActiveAt int64 `json:"last_active_at,omitempty"`
}
