/*
Package user contains the data structures describing a connected participant.

It defines the basic representation of a user within a canvas room (the User struct),
used for passing identity information both internally and to clients.
*/
package user

// User represents the identity of a room participant for the lifetime of
// one connection. The server assigns name and color at join time; nothing
// about a User outlives its session.
type User struct {
	// ID is the unique identifier for the user within its room.
	ID string `json:"id"`

	// Name is the generated display name shown next to cursors and strokes.
	Name string `json:"name"`

	// Color is the palette color assigned to the user for cursors and presence.
	Color string `json:"color"`

	// JoinedAt is the join time in Unix milliseconds.
	JoinedAt int64 `json:"joinedAt"`
}
