package container

import (
	app "whatflower/internal/application"
	"whatflower/internal/domain/port"
)

type Container struct {
	UserService           *app.UserService
	IdentificationService *app.IdentificationService
}

// New собирает сервисы приложения. inspector и lookups могут быть nil.
func New(
	userRepo port.UserRepository,
	classifier port.Classifier,
	encyclopedia port.Encyclopedia,
	inspector port.PhotoInspector,
	lookups port.LookupRepository,
) *Container {
	userService := app.NewUserService(userRepo)
	identificationService := app.NewIdentificationService(userService, classifier, encyclopedia, inspector, lookups)

	return &Container{
		UserService:           userService,
		IdentificationService: identificationService,
	}
}
