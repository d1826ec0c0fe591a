package hooks

import (
	"net/http"

	"shopbridge/pkg/shop"
)

// BeforeRegistrationEvent is published during authorize, before any shop
// record exists. A veto aborts the handshake with a 400.
type BeforeRegistrationEvent struct {
	Request *http.Request
	ShopID  string
	ShopURL string

	reason string
}

// RejectRegistration vetoes the handshake with a human-readable reason.
func (e *BeforeRegistrationEvent) RejectRegistration(reason string) {
	e.reason = reason
}

func (e *BeforeRegistrationEvent) Reason() string {
	return e.reason
}

// ShopAuthorizeEvent is published during confirmation, after the shop's
// signature was verified. A veto deletes the shop and answers 403.
type ShopAuthorizeEvent struct {
	Request *http.Request
	Shop    shop.Shop

	reason string
}

// RejectRegistration vetoes the registration with a human-readable reason.
func (e *ShopAuthorizeEvent) RejectRegistration(reason string) {
	e.reason = reason
}

func (e *ShopAuthorizeEvent) Reason() string {
	return e.reason
}

// AppInstallEvent is published when the platform reports the app as
// installed. AppVersion is empty when the webhook did not carry one.
type AppInstallEvent struct {
	Request    *http.Request
	Shop       shop.Shop
	AppVersion string
}

// AppActivateEvent is published before the shop is flipped active.
type AppActivateEvent struct {
	Request *http.Request
	Shop    shop.Shop
}

// AppDeactivateEvent is published before the shop is flipped inactive.
type AppDeactivateEvent struct {
	Request *http.Request
	Shop    shop.Shop
}

// AppUpdateEvent is published when the platform reports an app update.
type AppUpdateEvent struct {
	Request    *http.Request
	Shop       shop.Shop
	AppVersion string
}

// AppUninstallEvent is published when the app is removed from a shop. The
// shop record is kept unless a listener sets KeepUserData to false.
type AppUninstallEvent struct {
	Request *http.Request
	Shop    shop.Shop

	KeepUserData *bool
}

// SetKeepUserData decides whether the shop record survives the uninstall.
func (e *AppUninstallEvent) SetKeepUserData(keep bool) {
	e.KeepUserData = &keep
}
