// Package handlers is the HTTP facade: thin JSON endpoints over the
// directory, the social layer and the messaging services.
package handlers

import (
	"github.com/nvdoan/wavelink-backend/internal/config"
	"github.com/nvdoan/wavelink-backend/internal/directory"
	"github.com/nvdoan/wavelink-backend/internal/services"
	"github.com/nvdoan/wavelink-backend/internal/social"
	"github.com/nvdoan/wavelink-backend/internal/token"
)

var (
	dir               directory.Directory
	socialService     *social.Service
	tokenIssuer       *token.Issuer
	cloudinaryService *services.CloudinaryService
)

// Session plumbing as package variables so tests can stub them without a
// Redis instance.
var (
	validateSession   = services.ValidateSession
	createSession     = services.CreateSession
	invalidateSession = services.InvalidateSession
)

// Init wires the handler package's collaborators. Call once on startup
// before mounting routes.
func Init(d directory.Directory, issuer *token.Issuer) {
	dir = d
	socialService = social.NewService(d)
	tokenIssuer = issuer
}

// InitCloudinaryService sets up the media upload backend.
func InitCloudinaryService(cfg *config.Config) error {
	service, err := services.NewCloudinaryService(
		cfg.CloudinaryName,
		cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret,
	)
	if err != nil {
		return err
	}
	cloudinaryService = service
	return nil
}
