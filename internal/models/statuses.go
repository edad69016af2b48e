package models

type MediaKind string
type UploadStatus string

const (
	KindMusic MediaKind = "music"
	KindVideo MediaKind = "video"

	UploadStatusStaged    UploadStatus = "staged"
	UploadStatusFinalized UploadStatus = "finalized"
	UploadStatusCancelled UploadStatus = "cancelled"
	UploadStatusExpired   UploadStatus = "expired"
)

// ParseMediaKind accepts "music" or "video".
func ParseMediaKind(s string) (MediaKind, bool) {
	switch MediaKind(s) {
	case KindMusic, KindVideo:
		return MediaKind(s), true
	}
	return "", false
}

func (k MediaKind) String() string { return string(k) }

// MediaTable is the table holding records of this kind.
func (k MediaKind) MediaTable() string {
	if k == KindVideo {
		return Video{}.TableName()
	}
	return Music{}.TableName()
}

// CounterColumn is the play/view counter of this kind.
func (k MediaKind) CounterColumn() string {
	if k == KindVideo {
		return "view_count"
	}
	return "play_count"
}

// ItemColumn is the foreign key likes and comments use for this kind.
func (k MediaKind) ItemColumn() string {
	if k == KindVideo {
		return "video_id"
	}
	return "music_id"
}

func (k MediaKind) LikeTable() string {
	if k == KindVideo {
		return VideoLike{}.TableName()
	}
	return MusicLike{}.TableName()
}

func (k MediaKind) CommentTable() string {
	if k == KindVideo {
		return VideoComment{}.TableName()
	}
	return MusicComment{}.TableName()
}

func (k MediaKind) TagJoinTable() string {
	if k == KindVideo {
		return "video_tags"
	}
	return "music_tags"
}

// Terminal reports whether no further transition is allowed.
func (s UploadStatus) Terminal() bool {
	return s != UploadStatusStaged
}

// NewLike returns an empty like row of this kind, ready to insert.
func (k MediaKind) NewLike(userID, itemID uint) interface{} {
	if k == KindVideo {
		return &VideoLike{UserID: userID, VideoID: itemID}
	}
	return &MusicLike{UserID: userID, MusicID: itemID}
}

// NewComment returns an empty comment model of this kind.
func (k MediaKind) NewComment() interface{} {
	if k == KindVideo {
		return &VideoComment{}
	}
	return &MusicComment{}
}
