package handler

import (
	"time"

	"github.com/CTTECH108/Collabrative-Canvas/internal/app/canvas"
	"github.com/CTTECH108/Collabrative-Canvas/internal/app/session"
	"github.com/CTTECH108/Collabrative-Canvas/internal/configs"
)

type AppDeps struct {
	Coordinator *session.Coordinator
	Registry    *canvas.Registry
	Config      *configs.AppConfig
	StartedAt   time.Time
}
