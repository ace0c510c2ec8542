package device

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dukerupert/barhop/internal/middleware"
	"github.com/dukerupert/barhop/internal/model"
	"github.com/google/uuid"
	"github.com/mileusna/useragent"
	"golang.org/x/crypto/blake2b"
)

const CookieName = "barhop_device"

const cookieMaxAge = 365 * 24 * 60 * 60

type Store interface {
	Touch(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, id, fingerprint, label string) (*model.Device, error)
}

// Resolver maps a request to a device id, registering unknown browsers.
type Resolver struct {
	store  Store
	secure bool
	logger *slog.Logger
}

func NewResolver(s Store, secureCookies bool, logger *slog.Logger) *Resolver {
	return &Resolver{store: s, secure: secureCookies, logger: logger}
}

// Resolve returns the id stored in the device cookie if the store knows it,
// otherwise registers a new device. Crawlers without a cookie get an empty
// identity and no device row. It does not write to the response.
func (res *Resolver) Resolve(ctx context.Context, r *http.Request) (Identity, error) {
	if c, err := r.Cookie(CookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			ok, err := res.store.Touch(ctx, c.Value)
			if err != nil {
				return Identity{}, err
			}
			if ok {
				return Identity{ID: c.Value}, nil
			}
		}
	}

	if useragent.Parse(r.UserAgent()).Bot {
		return Identity{}, nil
	}

	id := uuid.NewString()
	label := Label(r.UserAgent())
	if _, err := res.store.Create(ctx, id, Fingerprint(r), label); err != nil {
		return Identity{}, fmt.Errorf("register device: %w", err)
	}
	res.logger.Info("device registered", "device_id", id, "label", label)
	return Identity{ID: id, Issued: true}, nil
}

// Cookie builds the cookie that stores id on the client.
func (res *Resolver) Cookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   res.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Fingerprint hashes the user agent and client IP. It is recorded for
// auditing only; the cookie is the identity.
func Fingerprint(r *http.Request) string {
	sum := blake2b.Sum256([]byte(r.UserAgent() + "\x00" + middleware.RealIP(r)))
	return hex.EncodeToString(sum[:])
}

// Label returns a short human description such as "Chrome on Windows".
func Label(userAgent string) string {
	ua := useragent.Parse(userAgent)
	switch {
	case ua.Bot:
		return "bot"
	case ua.Name == "" && ua.OS == "":
		return "unknown device"
	case ua.OS == "":
		return ua.Name
	case ua.Name == "":
		return ua.OS
	default:
		return ua.Name + " on " + ua.OS
	}
}
