// Package middlewares holds the authentication chain for the private API.
// Callers present a pre-shared key, a request timestamp, and an HMAC
// signature over the request line.
package middlewares

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"github.com/LexiconIndonesia/data-miner-service/common/utils"
)

const (
	headerApiKey    = "X-API-KEY"
	headerTime      = "X-ACCESS-TIME"
	headerSignature = "X-REQUEST-SIGNATURE"

	// maxClockSkew bounds replay of captured requests.
	maxClockSkew = 5 * time.Minute
)

// AccessTime rejects requests whose timestamp is missing or outside the
// allowed skew.
func AccessTime() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ts := r.Header.Get(headerTime)
			if ts == "" {
				utils.WriteError(w, http.StatusUnauthorized, "missing access time")
				return
			}

			unix, err := strconv.ParseInt(ts, 10, 64)
			if err != nil {
				utils.WriteError(w, http.StatusUnauthorized, "invalid access time")
				return
			}

			delta := time.Since(time.Unix(unix, 0))
			if delta < -maxClockSkew || delta > maxClockSkew {
				utils.WriteError(w, http.StatusUnauthorized, "access time outside allowed window")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ApiKey checks the pre-shared backend key. The key is compared as a salted
// digest so the raw key never needs to live in the client.
func ApiKey(backendKey, salt string) func(http.Handler) http.Handler {
	expected := saltedDigest(backendKey, salt)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(headerApiKey)
			if got == "" {
				utils.WriteError(w, http.StatusUnauthorized, "missing api key")
				return
			}
			if !hmac.Equal([]byte(got), []byte(expected)) && !hmac.Equal([]byte(got), []byte(backendKey)) {
				utils.WriteError(w, http.StatusUnauthorized, "invalid api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestSignature verifies an HMAC-SHA256 over method, path, and the access
// time header, keyed with the server salt.
func RequestSignature(salt string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sig := r.Header.Get(headerSignature)
			if sig == "" {
				utils.WriteError(w, http.StatusUnauthorized, "missing request signature")
				return
			}

			expected := SignRequest(salt, r.Method, r.URL.Path, r.Header.Get(headerTime))
			if !hmac.Equal([]byte(sig), []byte(expected)) {
				utils.WriteError(w, http.StatusUnauthorized, "invalid request signature")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SignRequest computes the signature a client must send. Exported so tests
// and internal callers can construct valid requests.
func SignRequest(salt, method, path, accessTime string) string {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(method))
	mac.Write([]byte("\n"))
	mac.Write([]byte(path))
	mac.Write([]byte("\n"))
	mac.Write([]byte(accessTime))
	return hex.EncodeToString(mac.Sum(nil))
}

func saltedDigest(key, salt string) string {
	sum := sha256.Sum256([]byte(key + salt))
	return hex.EncodeToString(sum[:])
}
