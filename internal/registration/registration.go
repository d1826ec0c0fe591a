package registration

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/jmespath/go-jmespath"
	"go.uber.org/zap"

	"shopbridge/internal/hooks"
	"shopbridge/internal/metrics"
	"shopbridge/internal/resolver"
	"shopbridge/internal/signer"
	"shopbridge/pkg/apperrors"
	"shopbridge/pkg/shop"
)

// Config carries the app-level credentials issued by the platform's app
// store listing.
type Config struct {
	AppName              string
	AppSecret            string
	AuthorizeCallbackURL string
}

// Registration implements the handshake and lifecycle endpoints of the
// app protocol. All handlers are plain http.HandlerFuncs so any router can
// mount them.
type Registration struct {
	cfg      Config
	signer   *signer.Signer
	repo     shop.Repository
	resolver *resolver.Resolver
	hooks    *hooks.Hooks
	log      *zap.SugaredLogger
	metrics  *metrics.AppMetrics
}

func New(cfg Config, sig *signer.Signer, repo shop.Repository, res *resolver.Resolver, h *hooks.Hooks, log *zap.SugaredLogger, m *metrics.AppMetrics) *Registration {
	return &Registration{cfg: cfg, signer: sig, repo: repo, resolver: res, hooks: h, log: log, metrics: m}
}

var duplicateSlashes = regexp.MustCompile(`([^:])(/{2,})`)

// sanitizeShopURL collapses duplicate slashes (keeping the scheme intact)
// and strips trailing slashes.
func sanitizeShopURL(raw string) string {
	return strings.TrimRight(duplicateSlashes.ReplaceAllString(raw, "$1/"), "/")
}

// Authorize handles the first half of the handshake: the platform proves
// possession of the app secret, we create an inactive shop with a fresh
// secret and answer with a proof the shop can verify.
func (reg *Registration) Authorize(w http.ResponseWriter, req *http.Request) {
	query := req.URL.Query()
	shopID := query.Get("shop-id")
	shopURL := query.Get("shop-url")
	timestamp := query.Get("timestamp")
	signatureHeader := req.Header.Get(signer.SignatureHeader)

	if shopID == "" || shopURL == "" || timestamp == "" || signatureHeader == "" {
		writeMessage(w, http.StatusBadRequest, "Invalid Request")
		return
	}

	message := fmt.Sprintf("shop-id=%s&shop-url=%s&timestamp=%s", shopID, shopURL, timestamp)
	if !reg.signer.Verify(signatureHeader, message, reg.cfg.AppSecret) {
		reg.metrics.RegistrationsTotal.WithLabelValues("rejected").Inc()
		writeMessage(w, http.StatusUnauthorized, "Cannot validate app signature")
		return
	}

	event := &hooks.BeforeRegistrationEvent{Request: req, ShopID: shopID, ShopURL: shopURL}
	if err := reg.hooks.BeforeRegistration.Publish(req.Context(), event); err != nil {
		reg.internalError(w, "before registration hook", err)
		return
	}
	if reason := event.Reason(); reason != "" {
		reg.metrics.RegistrationsTotal.WithLabelValues("vetoed").Inc()
		writeMessage(w, http.StatusBadRequest, reason)
		return
	}

	shopSecret, err := generateShopSecret()
	if err != nil {
		reg.internalError(w, "generate shop secret", err)
		return
	}

	if err := reg.repo.CreateShop(req.Context(), shopID, sanitizeShopURL(shopURL), shopSecret); err != nil {
		reg.internalError(w, "create shop", err)
		return
	}

	reg.metrics.RegistrationsTotal.WithLabelValues("authorized").Inc()
	reg.log.Infow("shop authorized", "shop", shopID)

	// The proof signs the raw shop URL as sent, not the sanitized one.
	writeJSON(w, http.StatusOK, map[string]string{
		"proof":            reg.signer.Sign(shopID+shopURL+reg.cfg.AppName, reg.cfg.AppSecret),
		"secret":           shopSecret,
		"confirmation_url": reg.cfg.AuthorizeCallbackURL,
	})
}

// AuthorizeCallback finishes the handshake: the shop proves possession of
// the secret issued during authorize and hands over its OAuth credentials.
// A failed verification deletes the half-registered shop.
func (reg *Registration) AuthorizeCallback(w http.ResponseWriter, req *http.Request) {
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid Request")
		return
	}

	var body struct {
		ShopID    string `json:"shopId"`
		APIKey    string `json:"apiKey"`
		SecretKey string `json:"secretKey"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid Request")
		return
	}
	signatureHeader := req.Header.Get(signer.ShopSignatureHeader)
	if body.ShopID == "" || body.APIKey == "" || body.SecretKey == "" || signatureHeader == "" {
		writeMessage(w, http.StatusBadRequest, "Invalid Request")
		return
	}

	s, err := reg.repo.GetShopByID(req.Context(), body.ShopID)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid shop given")
		return
	}

	if !reg.signer.Verify(signatureHeader, string(raw), s.ShopSecret()) {
		// The shop failed the handshake; do not leave a half-registered
		// record behind.
		if err := reg.repo.DeleteShop(req.Context(), s.ShopID()); err != nil {
			reg.log.Errorw("delete shop after failed verification", "shop", s.ShopID(), "err", err)
		}
		reg.metrics.RegistrationsTotal.WithLabelValues("rejected").Inc()
		writeMessage(w, http.StatusUnauthorized, "Cannot validate app signature")
		return
	}

	s.SetCredentials(body.APIKey, body.SecretKey)

	event := &hooks.ShopAuthorizeEvent{Request: req, Shop: s}
	if err := reg.hooks.ShopAuthorize.Publish(req.Context(), event); err != nil {
		reg.internalError(w, "shop authorize hook", err)
		return
	}
	if reason := event.Reason(); reason != "" {
		if err := reg.repo.DeleteShop(req.Context(), s.ShopID()); err != nil {
			reg.log.Errorw("delete vetoed shop", "shop", s.ShopID(), "err", err)
		}
		reg.metrics.RegistrationsTotal.WithLabelValues("vetoed").Inc()
		writeMessage(w, http.StatusForbidden, reason)
		return
	}

	if err := reg.repo.UpdateShop(req.Context(), s); err != nil {
		reg.internalError(w, "update shop", err)
		return
	}

	reg.metrics.RegistrationsTotal.WithLabelValues("confirmed").Inc()
	reg.log.Infow("shop confirmed", "shop", s.ShopID())
	w.WriteHeader(http.StatusNoContent)
}

// Install handles the app.installed webhook.
func (reg *Registration) Install(w http.ResponseWriter, req *http.Request) {
	ctx, ok := reg.resolveAPI(w, req)
	if !ok {
		return
	}

	event := &hooks.AppInstallEvent{Request: req, Shop: ctx.Shop, AppVersion: stringPath(ctx.Payload, "data.payload.appVersion")}
	if err := reg.hooks.AppInstall.Publish(req.Context(), event); err != nil {
		reg.internalError(w, "app install hook", err)
		return
	}

	reg.metrics.WebhookEventsTotal.WithLabelValues("install").Inc()
	w.WriteHeader(http.StatusNoContent)
}

// Activate handles the app.activated webhook and flips the shop active.
func (reg *Registration) Activate(w http.ResponseWriter, req *http.Request) {
	ctx, ok := reg.resolveAPI(w, req)
	if !ok {
		return
	}

	event := &hooks.AppActivateEvent{Request: req, Shop: ctx.Shop}
	if err := reg.hooks.AppActivate.Publish(req.Context(), event); err != nil {
		reg.internalError(w, "app activate hook", err)
		return
	}

	ctx.Shop.SetActive(true)
	if err := reg.repo.UpdateShop(req.Context(), ctx.Shop); err != nil {
		reg.internalError(w, "update shop", err)
		return
	}

	reg.metrics.WebhookEventsTotal.WithLabelValues("activate").Inc()
	w.WriteHeader(http.StatusNoContent)
}

// Deactivate handles the app.deactivated webhook and flips the shop
// inactive.
func (reg *Registration) Deactivate(w http.ResponseWriter, req *http.Request) {
	ctx, ok := reg.resolveAPI(w, req)
	if !ok {
		return
	}

	event := &hooks.AppDeactivateEvent{Request: req, Shop: ctx.Shop}
	if err := reg.hooks.AppDeactivate.Publish(req.Context(), event); err != nil {
		reg.internalError(w, "app deactivate hook", err)
		return
	}

	ctx.Shop.SetActive(false)
	if err := reg.repo.UpdateShop(req.Context(), ctx.Shop); err != nil {
		reg.internalError(w, "update shop", err)
		return
	}

	reg.metrics.WebhookEventsTotal.WithLabelValues("deactivate").Inc()
	w.WriteHeader(http.StatusNoContent)
}

// Update handles the app.updated webhook.
func (reg *Registration) Update(w http.ResponseWriter, req *http.Request) {
	ctx, ok := reg.resolveAPI(w, req)
	if !ok {
		return
	}

	event := &hooks.AppUpdateEvent{Request: req, Shop: ctx.Shop, AppVersion: stringPath(ctx.Payload, "data.payload.appVersion")}
	if err := reg.hooks.AppUpdate.Publish(req.Context(), event); err != nil {
		reg.internalError(w, "app update hook", err)
		return
	}

	reg.metrics.WebhookEventsTotal.WithLabelValues("update").Inc()
	w.WriteHeader(http.StatusNoContent)
}

// Uninstall handles the app.deleted webhook. The shop record is kept unless
// a listener decides otherwise.
func (reg *Registration) Uninstall(w http.ResponseWriter, req *http.Request) {
	ctx, ok := reg.resolveAPI(w, req)
	if !ok {
		return
	}

	event := &hooks.AppUninstallEvent{Request: req, Shop: ctx.Shop, KeepUserData: boolPath(ctx.Payload, "data.payload.keepUserData")}
	if err := reg.hooks.AppUninstall.Publish(req.Context(), event); err != nil {
		reg.internalError(w, "app uninstall hook", err)
		return
	}

	if event.KeepUserData != nil && !*event.KeepUserData {
		if err := reg.repo.DeleteShop(req.Context(), ctx.Shop.ShopID()); err != nil {
			reg.internalError(w, "delete shop", err)
			return
		}
	}

	reg.metrics.WebhookEventsTotal.WithLabelValues("uninstall").Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (reg *Registration) resolveAPI(w http.ResponseWriter, req *http.Request) (*resolver.Context, bool) {
	ctx, err := reg.resolver.FromAPI(req)
	if err != nil {
		var svcErr *apperrors.ServiceError
		if errors.As(err, &svcErr) {
			writeMessage(w, svcErr.Status, svcErr.Message)
		} else {
			reg.internalError(w, "resolve webhook", err)
		}
		return nil, false
	}
	return ctx, true
}

func (reg *Registration) internalError(w http.ResponseWriter, msg string, err error) {
	reg.log.Errorw(msg, "err", err)
	writeMessage(w, http.StatusInternalServerError, "internal error")
}

// stringPath extracts an optional string field from a decoded webhook
// payload, e.g. "data.payload.appVersion".
func stringPath(payload map[string]any, path string) string {
	value, err := jmespath.Search(path, payload)
	if err != nil {
		return ""
	}
	s, _ := value.(string)
	return s
}

// boolPath extracts an optional boolean field; nil means absent.
func boolPath(payload map[string]any, path string) *bool {
	value, err := jmespath.Search(path, payload)
	if err != nil {
		return nil
	}
	b, ok := value.(bool)
	if !ok {
		return nil
	}
	return &b
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
