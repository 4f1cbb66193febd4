package handler

import (
	"sockchat/internal/app/chat"
	"sockchat/internal/app/storage"
	"sockchat/internal/configs"
)

// AppDeps bundles the dependencies shared by every handler.
type AppDeps struct {
	Hub            *chat.Hub
	Config         *configs.AppConfig
	StorageService storage.Service
}
