package models

import "time"

// A like row exists at most once per (user, item).

type MusicLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_music_like_user_item" json:"user_id"`
	MusicID   uint      `gorm:"not null;uniqueIndex:idx_music_like_user_item;index" json:"music_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (MusicLike) TableName() string { return "music_likes" }

type VideoLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_video_like_user_item" json:"user_id"`
	VideoID   uint      `gorm:"not null;uniqueIndex:idx_video_like_user_item;index" json:"video_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (VideoLike) TableName() string { return "video_likes" }

type MusicComment struct {
	BaseModel
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	User    User   `gorm:"foreignKey:UserID" json:"user"`
	MusicID uint   `gorm:"not null;index" json:"music_id"`
	Content string `gorm:"type:text;not null" json:"content"`
}

func (MusicComment) TableName() string { return "music_comments" }

type VideoComment struct {
	BaseModel
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	User    User   `gorm:"foreignKey:UserID" json:"user"`
	VideoID uint   `gorm:"not null;index" json:"video_id"`
	Content string `gorm:"type:text;not null" json:"content"`
}

func (VideoComment) TableName() string { return "video_comments" }

// Comment is the kind-agnostic view of a comment row.
type Comment struct {
	ID        uint      `json:"id"`
	Kind      MediaKind `json:"kind"`
	ItemID    uint      `json:"item_id"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (c MusicComment) View() Comment {
	return Comment{ID: c.ID, Kind: KindMusic, ItemID: c.MusicID, UserID: c.UserID, Username: c.User.Username, Content: c.Content, CreatedAt: c.CreatedAt}
}

func (c VideoComment) View() Comment {
	return Comment{ID: c.ID, Kind: KindVideo, ItemID: c.VideoID, UserID: c.UserID, Username: c.User.Username, Content: c.Content, CreatedAt: c.CreatedAt}
}
