package hooks

import "context"

// List holds the listeners of one event type. Listeners run sequentially in
// registration order, so a later listener observes mutations made by an
// earlier one. The first listener error stops publishing and propagates to
// the caller; remaining listeners do not run.
type List[E any] struct {
	listeners []func(context.Context, E) error
}

// On registers a listener.
func (l *List[E]) On(fn func(context.Context, E) error) {
	l.listeners = append(l.listeners, fn)
}

// HasListeners reports whether any listener is registered.
func (l *List[E]) HasListeners() bool {
	return len(l.listeners) > 0
}

// Publish invokes every registered listener with the event. Publishing with
// no listeners is a no-op.
func (l *List[E]) Publish(ctx context.Context, event E) error {
	for _, fn := range l.listeners {
		if err := fn(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// Hooks is the typed event registry of the protocol engine. One listener
// list per event keeps payloads strongly typed and dispatch exhaustive.
type Hooks struct {
	BeforeRegistration List[*BeforeRegistrationEvent]
	ShopAuthorize      List[*ShopAuthorizeEvent]
	AppInstall         List[*AppInstallEvent]
	AppActivate        List[*AppActivateEvent]
	AppDeactivate      List[*AppDeactivateEvent]
	AppUpdate          List[*AppUpdateEvent]
	AppUninstall       List[*AppUninstallEvent]
}

func New() *Hooks {
	return &Hooks{}
}
