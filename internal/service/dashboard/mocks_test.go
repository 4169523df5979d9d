package dashboard

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/presence-dashboard/internal/domain"
)

var (
	_ rowStore       = &rowStoreMock{}
	_ authProvider   = &authProviderMock{}
	_ txManager      = &txManagerMock{}
	_ blobStore      = &blobStoreMock{}
	_ templateSource = &templateSourceMock{}
)

type rowStoreMock struct {
	SelectOneFunc  func(ctx context.Context, d domain.Domain, accountID uuid.UUID) (domain.Record, error)
	SelectManyFunc func(ctx context.Context, d domain.Domain, accountID uuid.UUID, opts domain.ListOptions) ([]domain.Record, error)
	UpsertFunc     func(ctx context.Context, d domain.Domain, accountID uuid.UUID, rec domain.Record) (domain.Record, error)
	InsertFunc     func(ctx context.Context, d domain.Domain, accountID uuid.UUID, rec domain.Record) (domain.Record, error)
	UpdateFunc     func(ctx context.Context, d domain.Domain, accountID, id uuid.UUID, rec domain.Record) (domain.Record, error)
	DeleteFunc     func(ctx context.Context, d domain.Domain, accountID, id uuid.UUID) error

	calls struct {
		SelectOne []struct {
			D         domain.Domain
			AccountID uuid.UUID
		}
		SelectMany []struct {
			D         domain.Domain
			AccountID uuid.UUID
			Opts      domain.ListOptions
		}
		Upsert []struct {
			D         domain.Domain
			AccountID uuid.UUID
			Rec       domain.Record
		}
		Insert []struct {
			D         domain.Domain
			AccountID uuid.UUID
			Rec       domain.Record
		}
		Update []struct {
			D         domain.Domain
			AccountID uuid.UUID
			ID        uuid.UUID
			Rec       domain.Record
		}
		Delete []struct {
			D         domain.Domain
			AccountID uuid.UUID
			ID        uuid.UUID
		}
	}
	lockSelectOne  sync.RWMutex
	lockSelectMany sync.RWMutex
	lockUpsert     sync.RWMutex
	lockInsert     sync.RWMutex
	lockUpdate     sync.RWMutex
	lockDelete     sync.RWMutex
}

func (mock *rowStoreMock) SelectOne(ctx context.Context, d domain.Domain, accountID uuid.UUID) (domain.Record, error) {
	if mock.SelectOneFunc == nil {
		panic("rowStoreMock.SelectOneFunc: method is nil but rowStore.SelectOne was just called")
	}
	callInfo := struct {
		D         domain.Domain
		AccountID uuid.UUID
	}{D: d, AccountID: accountID}
	mock.lockSelectOne.Lock()
	mock.calls.SelectOne = append(mock.calls.SelectOne, callInfo)
	mock.lockSelectOne.Unlock()
	return mock.SelectOneFunc(ctx, d, accountID)
}

func (mock *rowStoreMock) SelectOneCalls() []struct {
	D         domain.Domain
	AccountID uuid.UUID
} {
	mock.lockSelectOne.RLock()
	calls := mock.calls.SelectOne
	mock.lockSelectOne.RUnlock()
	return calls
}

func (mock *rowStoreMock) SelectMany(ctx context.Context, d domain.Domain, accountID uuid.UUID, opts domain.ListOptions) ([]domain.Record, error) {
	if mock.SelectManyFunc == nil {
		panic("rowStoreMock.SelectManyFunc: method is nil but rowStore.SelectMany was just called")
	}
	callInfo := struct {
		D         domain.Domain
		AccountID uuid.UUID
		Opts      domain.ListOptions
	}{D: d, AccountID: accountID, Opts: opts}
	mock.lockSelectMany.Lock()
	mock.calls.SelectMany = append(mock.calls.SelectMany, callInfo)
	mock.lockSelectMany.Unlock()
	return mock.SelectManyFunc(ctx, d, accountID, opts)
}

func (mock *rowStoreMock) SelectManyCalls() []struct {
	D         domain.Domain
	AccountID uuid.UUID
	Opts      domain.ListOptions
} {
	mock.lockSelectMany.RLock()
	calls := mock.calls.SelectMany
	mock.lockSelectMany.RUnlock()
	return calls
}

func (mock *rowStoreMock) Upsert(ctx context.Context, d domain.Domain, accountID uuid.UUID, rec domain.Record) (domain.Record, error) {
	if mock.UpsertFunc == nil {
		panic("rowStoreMock.UpsertFunc: method is nil but rowStore.Upsert was just called")
	}
	callInfo := struct {
		D         domain.Domain
		AccountID uuid.UUID
		Rec       domain.Record
	}{D: d, AccountID: accountID, Rec: rec}
	mock.lockUpsert.Lock()
	mock.calls.Upsert = append(mock.calls.Upsert, callInfo)
	mock.lockUpsert.Unlock()
	return mock.UpsertFunc(ctx, d, accountID, rec)
}

func (mock *rowStoreMock) UpsertCalls() []struct {
	D         domain.Domain
	AccountID uuid.UUID
	Rec       domain.Record
} {
	mock.lockUpsert.RLock()
	calls := mock.calls.Upsert
	mock.lockUpsert.RUnlock()
	return calls
}

func (mock *rowStoreMock) Insert(ctx context.Context, d domain.Domain, accountID uuid.UUID, rec domain.Record) (domain.Record, error) {
	if mock.InsertFunc == nil {
		panic("rowStoreMock.InsertFunc: method is nil but rowStore.Insert was just called")
	}
	callInfo := struct {
		D         domain.Domain
		AccountID uuid.UUID
		Rec       domain.Record
	}{D: d, AccountID: accountID, Rec: rec}
	mock.lockInsert.Lock()
	mock.calls.Insert = append(mock.calls.Insert, callInfo)
	mock.lockInsert.Unlock()
	return mock.InsertFunc(ctx, d, accountID, rec)
}

func (mock *rowStoreMock) InsertCalls() []struct {
	D         domain.Domain
	AccountID uuid.UUID
	Rec       domain.Record
} {
	mock.lockInsert.RLock()
	calls := mock.calls.Insert
	mock.lockInsert.RUnlock()
	return calls
}

func (mock *rowStoreMock) Update(ctx context.Context, d domain.Domain, accountID, id uuid.UUID, rec domain.Record) (domain.Record, error) {
	if mock.UpdateFunc == nil {
		panic("rowStoreMock.UpdateFunc: method is nil but rowStore.Update was just called")
	}
	callInfo := struct {
		D         domain.Domain
		AccountID uuid.UUID
		ID        uuid.UUID
		Rec       domain.Record
	}{D: d, AccountID: accountID, ID: id, Rec: rec}
	mock.lockUpdate.Lock()
	mock.calls.Update = append(mock.calls.Update, callInfo)
	mock.lockUpdate.Unlock()
	return mock.UpdateFunc(ctx, d, accountID, id, rec)
}

func (mock *rowStoreMock) UpdateCalls() []struct {
	D         domain.Domain
	AccountID uuid.UUID
	ID        uuid.UUID
	Rec       domain.Record
} {
	mock.lockUpdate.RLock()
	calls := mock.calls.Update
	mock.lockUpdate.RUnlock()
	return calls
}

func (mock *rowStoreMock) Delete(ctx context.Context, d domain.Domain, accountID, id uuid.UUID) error {
	if mock.DeleteFunc == nil {
		panic("rowStoreMock.DeleteFunc: method is nil but rowStore.Delete was just called")
	}
	callInfo := struct {
		D         domain.Domain
		AccountID uuid.UUID
		ID        uuid.UUID
	}{D: d, AccountID: accountID, ID: id}
	mock.lockDelete.Lock()
	mock.calls.Delete = append(mock.calls.Delete, callInfo)
	mock.lockDelete.Unlock()
	return mock.DeleteFunc(ctx, d, accountID, id)
}

func (mock *rowStoreMock) DeleteCalls() []struct {
	D         domain.Domain
	AccountID uuid.UUID
	ID        uuid.UUID
} {
	mock.lockDelete.RLock()
	calls := mock.calls.Delete
	mock.lockDelete.RUnlock()
	return calls
}

type authProviderMock struct {
	GetSessionFunc func(ctx context.Context) (domain.Account, error)
	SignOutFunc    func(ctx context.Context) error

	calls struct {
		GetSession []struct{}
		SignOut    []struct{}
	}
	lockGetSession sync.RWMutex
	lockSignOut    sync.RWMutex
}

func (mock *authProviderMock) GetSession(ctx context.Context) (domain.Account, error) {
	if mock.GetSessionFunc == nil {
		panic("authProviderMock.GetSessionFunc: method is nil but authProvider.GetSession was just called")
	}
	mock.lockGetSession.Lock()
	mock.calls.GetSession = append(mock.calls.GetSession, struct{}{})
	mock.lockGetSession.Unlock()
	return mock.GetSessionFunc(ctx)
}

func (mock *authProviderMock) GetSessionCalls() []struct{} {
	mock.lockGetSession.RLock()
	calls := mock.calls.GetSession
	mock.lockGetSession.RUnlock()
	return calls
}

func (mock *authProviderMock) SignOut(ctx context.Context) error {
	if mock.SignOutFunc == nil {
		panic("authProviderMock.SignOutFunc: method is nil but authProvider.SignOut was just called")
	}
	mock.lockSignOut.Lock()
	mock.calls.SignOut = append(mock.calls.SignOut, struct{}{})
	mock.lockSignOut.Unlock()
	return mock.SignOutFunc(ctx)
}

func (mock *authProviderMock) SignOutCalls() []struct{} {
	mock.lockSignOut.RLock()
	calls := mock.calls.SignOut
	mock.lockSignOut.RUnlock()
	return calls
}

type txManagerMock struct {
	RunInTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

	calls struct {
		RunInTx []struct{}
	}
	lockRunInTx sync.RWMutex
}

func (mock *txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if mock.RunInTxFunc == nil {
		panic("txManagerMock.RunInTxFunc: method is nil but txManager.RunInTx was just called")
	}
	mock.lockRunInTx.Lock()
	mock.calls.RunInTx = append(mock.calls.RunInTx, struct{}{})
	mock.lockRunInTx.Unlock()
	return mock.RunInTxFunc(ctx, fn)
}

func (mock *txManagerMock) RunInTxCalls() []struct{} {
	mock.lockRunInTx.RLock()
	calls := mock.calls.RunInTx
	mock.lockRunInTx.RUnlock()
	return calls
}

type blobStoreMock struct {
	UploadFunc    func(ctx context.Context, bucket, path string, body io.Reader, opts domain.UploadOptions) error
	PublicURLFunc func(bucket, path string) string
	RemoveFunc    func(ctx context.Context, bucket string, paths ...string) error

	calls struct {
		Upload []struct {
			Bucket string
			Path   string
			Opts   domain.UploadOptions
		}
		PublicURL []struct {
			Bucket string
			Path   string
		}
		Remove []struct {
			Bucket string
			Paths  []string
		}
	}
	lockUpload    sync.RWMutex
	lockPublicURL sync.RWMutex
	lockRemove    sync.RWMutex
}

func (mock *blobStoreMock) Upload(ctx context.Context, bucket, path string, body io.Reader, opts domain.UploadOptions) error {
	if mock.UploadFunc == nil {
		panic("blobStoreMock.UploadFunc: method is nil but blobStore.Upload was just called")
	}
	callInfo := struct {
		Bucket string
		Path   string
		Opts   domain.UploadOptions
	}{Bucket: bucket, Path: path, Opts: opts}
	mock.lockUpload.Lock()
	mock.calls.Upload = append(mock.calls.Upload, callInfo)
	mock.lockUpload.Unlock()
	return mock.UploadFunc(ctx, bucket, path, body, opts)
}

func (mock *blobStoreMock) UploadCalls() []struct {
	Bucket string
	Path   string
	Opts   domain.UploadOptions
} {
	mock.lockUpload.RLock()
	calls := mock.calls.Upload
	mock.lockUpload.RUnlock()
	return calls
}

func (mock *blobStoreMock) PublicURL(bucket, path string) string {
	if mock.PublicURLFunc == nil {
		panic("blobStoreMock.PublicURLFunc: method is nil but blobStore.PublicURL was just called")
	}
	callInfo := struct {
		Bucket string
		Path   string
	}{Bucket: bucket, Path: path}
	mock.lockPublicURL.Lock()
	mock.calls.PublicURL = append(mock.calls.PublicURL, callInfo)
	mock.lockPublicURL.Unlock()
	return mock.PublicURLFunc(bucket, path)
}

func (mock *blobStoreMock) Remove(ctx context.Context, bucket string, paths ...string) error {
	if mock.RemoveFunc == nil {
		panic("blobStoreMock.RemoveFunc: method is nil but blobStore.Remove was just called")
	}
	callInfo := struct {
		Bucket string
		Paths  []string
	}{Bucket: bucket, Paths: paths}
	mock.lockRemove.Lock()
	mock.calls.Remove = append(mock.calls.Remove, callInfo)
	mock.lockRemove.Unlock()
	return mock.RemoveFunc(ctx, bucket, paths...)
}

func (mock *blobStoreMock) RemoveCalls() []struct {
	Bucket string
	Paths  []string
} {
	mock.lockRemove.RLock()
	calls := mock.calls.Remove
	mock.lockRemove.RUnlock()
	return calls
}

type templateSourceMock struct {
	FetchFunc func(ctx context.Context, name string) (string, error)

	calls struct {
		Fetch []struct {
			Name string
		}
	}
	lockFetch sync.RWMutex
}

func (mock *templateSourceMock) Fetch(ctx context.Context, name string) (string, error) {
	if mock.FetchFunc == nil {
		panic("templateSourceMock.FetchFunc: method is nil but templateSource.Fetch was just called")
	}
	callInfo := struct{ Name string }{Name: name}
	mock.lockFetch.Lock()
	mock.calls.Fetch = append(mock.calls.Fetch, callInfo)
	mock.lockFetch.Unlock()
	return mock.FetchFunc(ctx, name)
}

func (mock *templateSourceMock) FetchCalls() []struct {
	Name string
} {
	mock.lockFetch.RLock()
	calls := mock.calls.Fetch
	mock.lockFetch.RUnlock()
	return calls
}
