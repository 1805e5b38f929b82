package mongostore

import (
	"errors"
	"testing"

	"campus-blog/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

func TestWrapError(t *testing.T) {
	if wrapError(nil) != nil {
		t.Error("wrapError(nil) should be nil")
	}
	if !errors.Is(wrapError(mongo.ErrNoDocuments), storage.ErrNotFound) {
		t.Error("ErrNoDocuments should map to ErrNotFound")
	}

	// 其他错误原样透传
	sentinel := errors.New("network down")
	if !errors.Is(wrapError(sentinel), sentinel) {
		t.Error("unknown errors should pass through")
	}
}
