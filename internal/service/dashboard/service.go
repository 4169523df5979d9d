// Package dashboard is the client dashboard core: session, local data
// cache, section loading, field binding and the per-domain edit/save state
// machines. One Dashboard serves one signed-in page lifetime.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/presence-dashboard/internal/config"
	"github.com/heartmarshall/presence-dashboard/internal/domain"
)

type authProvider interface {
	GetSession(ctx context.Context) (domain.Account, error)
	SignOut(ctx context.Context) error
}

type rowStore interface {
	SelectOne(ctx context.Context, d domain.Domain, accountID uuid.UUID) (domain.Record, error)
	SelectMany(ctx context.Context, d domain.Domain, accountID uuid.UUID, opts domain.ListOptions) ([]domain.Record, error)
	Upsert(ctx context.Context, d domain.Domain, accountID uuid.UUID, rec domain.Record) (domain.Record, error)
	Insert(ctx context.Context, d domain.Domain, accountID uuid.UUID, rec domain.Record) (domain.Record, error)
	Update(ctx context.Context, d domain.Domain, accountID, id uuid.UUID, rec domain.Record) (domain.Record, error)
	Delete(ctx context.Context, d domain.Domain, accountID, id uuid.UUID) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type blobStore interface {
	Upload(ctx context.Context, bucket, path string, body io.Reader, opts domain.UploadOptions) error
	PublicURL(bucket, path string) string
	Remove(ctx context.Context, bucket string, paths ...string) error
}

type templateSource interface {
	Fetch(ctx context.Context, name string) (string, error)
}

type notifier interface {
	Show(message string, kind domain.NotificationKind) domain.Notification
}

// Deps are the collaborators shared by every dashboard.
type Deps struct {
	Auth      authProvider
	Rows      rowStore
	Tx        txManager
	Blobs     blobStore
	Templates templateSource

	Storage   config.StorageConfig
	Dashboard config.DashboardConfig
	Notify    config.NotifyConfig
}

// User-facing messages.
const (
	msgWelcome          = "Welcome to Echo AI Systems! Your account has been set up."
	msgAccountFailed    = "Error setting up account. Some features may not work."
	msgLoadFailed       = "Database setup required. Some features may not work yet."
	msgEditHint         = "Click on any field to edit"
	msgRelationMissing  = "Database tables not set up yet. Please contact support."
	msgAuthError        = "Authentication error. Please refresh the page and try again."
	msgSessionExpired   = "Session expired. Please log in again."
	msgPermissionDenied = "Permission denied. Please contact support."
	msgSaveInProgress   = "A save is already in progress. Please wait."
	msgSaveFailed       = "Error saving data. Please try again or contact support."
)

// notificationFor turns a failed operation into exactly one message.
func notificationFor(err error) (string, domain.NotificationKind) {
	switch domain.Classify(err) {
	case domain.ClassRelationMissing:
		return msgRelationMissing, domain.NotificationWarning
	case domain.ClassNoSession:
		return msgAuthError, domain.NotificationError
	case domain.ClassAuthExpired:
		return msgSessionExpired, domain.NotificationError
	case domain.ClassPermissionDenied:
		return msgPermissionDenied, domain.NotificationError
	case domain.ClassValidation:
		return validationMessage(err), domain.NotificationError
	case domain.ClassSaveInProgress:
		return msgSaveInProgress, domain.NotificationInfo
	}
	return msgSaveFailed, domain.NotificationError
}

func validationMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) && len(ve.Errors) > 0 {
		fe := ve.Errors[0]
		return fmt.Sprintf("Invalid %s: %s", strings.ReplaceAll(fe.Field, "_", " "), fe.Message)
	}
	return "Please check the highlighted fields."
}
