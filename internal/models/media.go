package models

type Tag struct {
	BaseModel
	Name string `gorm:"uniqueIndex;size:64;not null" json:"name"`
}

func (Tag) TableName() string { return "tags" }

type Music struct {
	BaseModel
	Title         string `gorm:"size:200;not null;index" json:"title"`
	Singer        string `gorm:"size:200" json:"singer"`
	Type          string `gorm:"size:64" json:"type"`
	FilePath      string `gorm:"not null" json:"file_path"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`
	OwnerID       uint   `gorm:"not null;index" json:"owner_id"`
	Owner         User   `gorm:"foreignKey:OwnerID" json:"owner"`
	PlayCount     int64  `gorm:"not null;default:0" json:"play_count"`
	LikeCount     int64  `gorm:"not null;default:0" json:"like_count"`
	Tags          []Tag  `gorm:"many2many:music_tags" json:"tags"`
}

func (Music) TableName() string { return "music" }

type Video struct {
	BaseModel
	Title         string `gorm:"size:200;not null;index" json:"title"`
	Singer        string `gorm:"size:200" json:"singer"`
	Type          string `gorm:"size:64" json:"type"`
	FilePath      string `gorm:"not null" json:"file_path"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`
	Detail        string `gorm:"type:text" json:"detail"`
	Duration      int    `gorm:"not null;default:0" json:"duration"` // seconds
	OwnerID       uint   `gorm:"not null;index" json:"owner_id"`
	Owner         User   `gorm:"foreignKey:OwnerID" json:"owner"`
	ViewCount     int64  `gorm:"not null;default:0" json:"view_count"`
	LikeCount     int64  `gorm:"not null;default:0" json:"like_count"`
	Tags          []Tag  `gorm:"many2many:video_tags" json:"tags"`
}

func (Video) TableName() string { return "videos" }
