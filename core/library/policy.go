package library

// Op names a library mutation.
type Op string

const (
	OpLike           Op = "like"
	OpUnlike         Op = "unlike"
	OpCreatePlaylist Op = "create_playlist"
	OpUpdatePlaylist Op = "update_playlist"
	OpAddTrack       Op = "add_track"
	OpRemoveTrack    Op = "remove_track"
	OpDeletePlaylist Op = "delete_playlist"

	// Reads, reported in RemoteError only.
	OpFetchLikes     Op = "fetch_likes"
	OpFetchPlaylists Op = "fetch_playlists"
)

// Confirmation says whether the local collection changes before or after
// the remote write succeeds.
type Confirmation int

const (
	// Optimistic mutations apply locally and keep the local change when the
	// remote write fails.
	Optimistic Confirmation = iota
	// Confirmed mutations apply locally only after the remote write succeeds.
	Confirmed
)

func (c Confirmation) String() string {
	if c == Confirmed {
		return "confirmed"
	}
	return "optimistic"
}

// Policy maps each playlist operation to its confirmation mode. Likes are
// always remote-first and are not governed by the policy.
type Policy map[Op]Confirmation

// DefaultPolicy confirms creates and deletes so a failed insert never leaves
// a playlist the server does not hold. Edits are optimistic.
func DefaultPolicy() Policy {
	return Policy{
		OpCreatePlaylist: Confirmed,
		OpUpdatePlaylist: Optimistic,
		OpAddTrack:       Optimistic,
		OpRemoveTrack:    Optimistic,
		OpDeletePlaylist: Confirmed,
	}
}

// For returns the mode for op; unknown ops are optimistic.
func (p Policy) For(op Op) Confirmation {
	return p[op]
}
