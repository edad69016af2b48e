package services

import (
	"twobeats/internal/auth"
	"twobeats/internal/repositories"
	"twobeats/internal/storage"
	"twobeats/internal/thumbnail"
)

// ServiceContainer holds every application service.
type ServiceContainer struct {
	AuthService        AuthService
	TagService         TagService
	UploadService      UploadService
	MediaService       MediaService
	InteractionService InteractionService
}

// Dependencies are the collaborators the services are built from.
type Dependencies struct {
	Storage    storage.Storage
	Tokens     *auth.TokenManager
	Prober     MetadataProber
	Thumbnails thumbnail.Generator
	Publisher  CounterPublisher
	Upload     UploadConfig
}

func NewServiceContainer(deps Dependencies) *ServiceContainer {
	userRepo := repositories.NewUserRepository()
	tagRepo := repositories.NewTagRepository()
	mediaRepo := repositories.NewMediaRepository()
	likeRepo := repositories.NewLikeRepository()
	commentRepo := repositories.NewCommentRepository()
	sessionRepo := repositories.NewUploadSessionRepository()

	uploads := NewUploadService(sessionRepo, mediaRepo, tagRepo, deps.Storage, deps.Prober, deps.Thumbnails, deps.Upload)

	return &ServiceContainer{
		AuthService:        NewAuthService(userRepo, deps.Tokens),
		TagService:         NewTagService(tagRepo),
		UploadService:      uploads,
		MediaService:       NewMediaService(mediaRepo, tagRepo, likeRepo, commentRepo, uploads, deps.Storage, deps.Prober, deps.Thumbnails, deps.Publisher, deps.Upload),
		InteractionService: NewInteractionService(mediaRepo, likeRepo, commentRepo, deps.Publisher),
	}
}
