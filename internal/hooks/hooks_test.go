package hooks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopbridge/internal/hooks"
	"shopbridge/pkg/shop"
)

func TestPublishWithoutListenersIsNoop(t *testing.T) {
	h := hooks.New()

	assert.False(t, h.ShopAuthorize.HasListeners())
	assert.NoError(t, h.ShopAuthorize.Publish(context.Background(), &hooks.ShopAuthorizeEvent{}))
}

func TestListenersRunInRegistrationOrder(t *testing.T) {
	h := hooks.New()
	var order []int

	h.AppInstall.On(func(ctx context.Context, e *hooks.AppInstallEvent) error {
		order = append(order, 1)
		return nil
	})
	h.AppInstall.On(func(ctx context.Context, e *hooks.AppInstallEvent) error {
		order = append(order, 2)
		return nil
	})

	require.True(t, h.AppInstall.HasListeners())
	require.NoError(t, h.AppInstall.Publish(context.Background(), &hooks.AppInstallEvent{}))
	assert.Equal(t, []int{1, 2}, order)
}

func TestLaterListenerObservesEarlierMutation(t *testing.T) {
	h := hooks.New()
	var observed string

	h.ShopAuthorize.On(func(ctx context.Context, e *hooks.ShopAuthorizeEvent) error {
		e.RejectRegistration("shop is on the deny list")
		return nil
	})
	h.ShopAuthorize.On(func(ctx context.Context, e *hooks.ShopAuthorizeEvent) error {
		observed = e.Reason()
		return nil
	})

	event := &hooks.ShopAuthorizeEvent{Shop: shop.NewSimpleShop("1", "https://shop.test", "secret")}
	require.NoError(t, h.ShopAuthorize.Publish(context.Background(), event))

	assert.Equal(t, "shop is on the deny list", observed)
	assert.Equal(t, "shop is on the deny list", event.Reason())
}

func TestListenerErrorStopsPublishing(t *testing.T) {
	h := hooks.New()
	boom := errors.New("listener failed")
	secondRan := false

	h.AppUpdate.On(func(ctx context.Context, e *hooks.AppUpdateEvent) error {
		return boom
	})
	h.AppUpdate.On(func(ctx context.Context, e *hooks.AppUpdateEvent) error {
		secondRan = true
		return nil
	})

	err := h.AppUpdate.Publish(context.Background(), &hooks.AppUpdateEvent{})
	assert.ErrorIs(t, err, boom)
	assert.False(t, secondRan)
}

func TestUninstallEventKeepUserData(t *testing.T) {
	event := &hooks.AppUninstallEvent{}
	assert.Nil(t, event.KeepUserData)

	event.SetKeepUserData(false)
	require.NotNil(t, event.KeepUserData)
	assert.False(t, *event.KeepUserData)
}
