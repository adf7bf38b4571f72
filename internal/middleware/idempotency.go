package middleware

import (
	"bytes"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"busbooking/internal/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayHeader      = "Idempotent-Replay"
	idempotencyTTL    = 24 * time.Hour
)

// bodyRecorder copies the response body as it is written.
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the response of a completed POST, PUT or PATCH that is
// retried with the same Idempotency-Key on the same path. Only 2xx responses
// are kept: a rejected confirm (seat conflict, unavailable database) can be
// retried with the same key once the session is fixed. A nil store disables
// replay.
func Idempotency(store redis.IdempotencyStoreInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if store == nil || key == "" || !replayable(c.Request.Method) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		storeKey := c.Request.Method + ":" + c.Request.URL.Path + ":" + key

		stored, err := store.GetResponse(ctx, storeKey)
		if err != nil {
			log.Printf("[HTTP] Idempotency lookup failed for %s: %v", storeKey, err)
			c.Next()
			return
		}
		if stored != nil {
			c.Header(replayHeader, "true")
			c.Data(stored.StatusCode, stored.ContentType, stored.Body)
			c.Abort()
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		status := rec.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			return
		}
		resp := &redis.StoredResponse{
			StatusCode:  status,
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
		}
		if err := store.SaveResponse(ctx, storeKey, resp, idempotencyTTL); err != nil {
			log.Printf("[HTTP] Failed to store response for %s: %v", storeKey, err)
		}
	}
}

func replayable(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}
