package handlers

import (
	"twobeats/internal/auth"
	"twobeats/internal/services"
	"twobeats/internal/storage"
	"twobeats/internal/validator"
)

// AppHandlers holds every HTTP handler of the application.
type AppHandlers struct {
	AuthHandler        *AuthHandler
	TagHandler         *TagHandler
	UploadHandler      *UploadHandler
	MusicHandler       *MusicHandler
	VideoHandler       *VideoHandler
	InteractionHandler *InteractionHandler
	FileHandler        *FileHandler
}

func NewAppHandlers(svc *services.ServiceContainer, v *validator.Validator, tokens *auth.TokenManager, st storage.Storage) *AppHandlers {
	base := NewBaseHandler(v, tokens)
	return &AppHandlers{
		AuthHandler:        NewAuthHandler(base, svc.AuthService),
		TagHandler:         NewTagHandler(base, svc.TagService),
		UploadHandler:      NewUploadHandler(base, svc.UploadService),
		MusicHandler:       NewMusicHandler(base, svc.MediaService),
		VideoHandler:       NewVideoHandler(base, svc.MediaService),
		InteractionHandler: NewInteractionHandler(base, svc.InteractionService),
		FileHandler:        NewFileHandler(base, st, svc.MediaService),
	}
}
