package handlers

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/grjus/youtube-news/internal/httpserver/deps"
	"github.com/grjus/youtube-news/internal/logger"
)

// maxNotificationBytes bounds the feed payload we accept from the hub.
const maxNotificationBytes = 1 << 20

// VerifySubscription handles the hub's GET verification of (un)subscribe
// intents. Unknown channels get a 404 so the hub abandons the subscription.
func VerifySubscription(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		mode := q.Get("hub.mode")
		topic := q.Get("hub.topic")
		challenge := q.Get("hub.challenge")

		if challenge == "" {
			http.Error(w, "missing hub.challenge", http.StatusBadRequest)
			return
		}

		channelID, err := channelFromTopic(topic)
		if err != nil {
			d.Logger.Warn("verification for unparseable topic",
				logger.String("topic", topic),
				logger.Error(err))
			http.NotFound(w, r)
			return
		}
		if _, ok := d.Registry.Get(channelID); !ok {
			d.Logger.Warn("verification for unknown channel",
				logger.String("channel_id", channelID))
			http.NotFound(w, r)
			return
		}

		now := d.Now()
		switch mode {
		case "subscribe":
			lease, _ := strconv.Atoi(q.Get("hub.lease_seconds"))
			if updated, err := d.Store.SetChannelActive(r.Context(), channelID, true, lease, now); err != nil {
				d.Logger.Warn("failed to persist subscription state",
					logger.String("channel_id", channelID),
					logger.Error(err))
				d.Registry.SetActive(channelID, true, now)
			} else {
				d.Registry.Put(updated)
			}
			d.Logger.Info("subscription verified",
				logger.String("channel_id", channelID),
				logger.Int("lease_seconds", lease))
		case "unsubscribe":
			if updated, err := d.Store.SetChannelActive(r.Context(), channelID, false, 0, now); err != nil {
				d.Logger.Warn("failed to persist unsubscription",
					logger.String("channel_id", channelID),
					logger.Error(err))
				d.Registry.SetActive(channelID, false, now)
			} else {
				d.Registry.Put(updated)
			}
			d.Logger.Info("unsubscription verified",
				logger.String("channel_id", channelID))
		default:
			d.Logger.Warn("verification with unsupported mode",
				logger.String("mode", mode),
				logger.String("channel_id", channelID))
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(challenge))
	}
}

// Notification handles the hub's POST delivery of feed updates. The payload
// is authenticated with the HMAC signature before any parsing happens; a bad
// signature is a 403 so the hub knows the content never got through.
func Notification(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxNotificationBytes))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		if !validSignature(d.WebSubSecret, body, r.Header.Get("X-Hub-Signature")) {
			d.Logger.Warn("notification with missing or invalid signature",
				logger.String("remote_ip", r.RemoteAddr))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		outcome, err := d.Processor.Process(r.Context(), body)
		if err != nil {
			// The hub redelivers on 5xx; the dedup gate keeps that safe.
			d.Logger.Error("notification processing failed",
				logger.String("outcome", string(outcome)),
				logger.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

// channelFromTopic extracts the channel id from a feed topic URL like
// https://www.youtube.com/xml/feeds/videos.xml?channel_id=UC...
func channelFromTopic(topic string) (string, error) {
	u, err := url.Parse(topic)
	if err != nil {
		return "", err
	}
	id := u.Query().Get("channel_id")
	if id == "" {
		return "", errMissingChannelID
	}
	return id, nil
}

var errMissingChannelID = errors.New("topic has no channel_id parameter")

// validSignature checks the sha1 HMAC the hub computes over the raw body.
func validSignature(secret string, body []byte, header string) bool {
	hexDigest, ok := strings.CutPrefix(header, "sha1=")
	if !ok {
		return false
	}
	expected, err := hex.DecodeString(hexDigest)
	if err != nil {
		return false
	}

	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}
