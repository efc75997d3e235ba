package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	app "whatflower/internal/application"
	"whatflower/internal/infrastructure/storage"
)

func TestNew_WiresServices(t *testing.T) {
	c := New(storage.NewMemoryUserRepository(), nil, nil, nil, storage.NewMemoryLookupRepository())
	require.NotNil(t, c.UserService)
	require.NotNil(t, c.IdentificationService)

	_, err := c.IdentificationService.Identify(context.Background(), 1, 10, []byte("jpeg"))
	require.ErrorIs(t, err, app.ErrClassifierNotConfigured)
}
