package syncsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/trezcool/tutorbook/core"
	"github.com/trezcool/tutorbook/core/lesson"
)

const (
	tokenPrefix = "ghp_"
	tokenLen    = 40

	SourceGist  = "gist"
	SourceLocal = "local"
)

var (
	ErrSyncInProgress = errors.New("a sync is already in progress")
	ErrNoToken        = errors.New("gist token not configured")
	ErrNoGist         = errors.New("gist id not configured")
	ErrInvalidToken   = errors.New("gist token invalid or revoked")
	ErrGistNotFound   = errors.New("gist not found")
	ErrRemoteFile     = errors.New("lessons file not found in gist")
)

type (
	// Reloader is implemented by *lesson.Store.
	Reloader interface {
		Reload(ctx context.Context) int
	}

	Deps struct {
		KV      core.KVStore
		Store   Reloader
		Logger  core.Logger
		Gist    core.GistConfig
		Storage core.StorageConfig
		Client  *http.Client     // defaults to a client with Gist.Timeout
		NowFunc func() time.Time // defaults to time.Now
	}

	// Service pushes and pulls the persisted lesson collection to and from a GitHub Gist.
	Service struct {
		kv      core.KVStore
		store   Reloader
		logger  core.Logger
		conf    core.GistConfig
		storage core.StorageConfig
		client  *http.Client
		now     func() time.Time
		sem     *semaphore.Weighted
	}

	// Info describes the last known remote copy.
	Info struct {
		UpdatedAt time.Time `json:"updatedAt"`
		Size      int       `json:"size"`
		URL       string    `json:"url,omitempty"`
		Source    string    `json:"source"`
	}

	gistFile struct {
		Content string `json:"content"`
		Size    int    `json:"size,omitempty"`
	}

	gistPatch struct {
		Description string              `json:"description"`
		Files       map[string]gistFile `json:"files"`
	}

	gist struct {
		Files     map[string]gistFile `json:"files"`
		HTMLURL   string              `json:"html_url"`
		UpdatedAt time.Time           `json:"updated_at"`
	}
)

func NewService(deps Deps) *Service {
	svc := &Service{
		kv:      deps.KV,
		store:   deps.Store,
		logger:  deps.Logger,
		conf:    deps.Gist,
		storage: deps.Storage,
		client:  deps.Client,
		now:     deps.NowFunc,
		sem:     semaphore.NewWeighted(1),
	}
	if svc.client == nil {
		timeout := svc.conf.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		svc.client = &http.Client{Timeout: timeout}
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.conf.APIURL == "" {
		svc.conf.APIURL = "https://api.github.com"
	}
	if svc.conf.Filename == "" {
		svc.conf.Filename = "lessons-data.json"
	}
	return svc
}

func (svc *Service) lessonsKey() string {
	if svc.storage.LessonsKey != "" {
		return svc.storage.LessonsKey
	}
	return lesson.DefaultKey
}

func (svc *Service) lastSyncKey() string {
	if svc.storage.LastSyncKey != "" {
		return svc.storage.LastSyncKey
	}
	return "lastSync"
}

func (svc *Service) tokenKey() string {
	if svc.storage.TokenKey != "" {
		return svc.storage.TokenKey
	}
	return "gistToken"
}

// token returns the stored token, falling back to the configured one.
func (svc *Service) token(ctx context.Context) string {
	if data, err := svc.kv.Get(ctx, svc.tokenKey()); err == nil && len(data) > 0 {
		return string(data)
	}
	return svc.conf.Token
}

// HasToken reports whether a well-formed token is available.
func (svc *Service) HasToken(ctx context.Context) bool {
	return len(svc.token(ctx)) == tokenLen
}

// MaskedToken returns the current token with its middle hidden, or "" when there is none.
func (svc *Service) MaskedToken(ctx context.Context) string {
	t := svc.token(ctx)
	if len(t) < 10 {
		return ""
	}
	return t[:7] + "..." + t[len(t)-4:]
}

// SetToken checks the token format and stores it.
func (svc *Service) SetToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	switch {
	case token == "":
		return core.NewValidationError(nil, core.FieldError{Field: "token", Error: "token is required"})
	case !strings.HasPrefix(token, tokenPrefix):
		return core.NewValidationError(nil, core.FieldError{Field: "token", Error: `token must start with "ghp_"`})
	case len(token) != tokenLen:
		return core.NewValidationError(nil, core.FieldError{
			Field: "token",
			Error: "token must be 40 characters long",
		})
	}
	if err := svc.kv.Set(ctx, svc.tokenKey(), []byte(token)); err != nil {
		return core.NewPersistenceError("saving token", svc.tokenKey(), err)
	}
	return nil
}

// ClearToken removes the stored token. A configured token, if any, applies again.
func (svc *Service) ClearToken(ctx context.Context) error {
	if err := svc.kv.Delete(ctx, svc.tokenKey()); err != nil {
		return core.NewPersistenceError("clearing token", svc.tokenKey(), err)
	}
	return nil
}

func (svc *Service) checkConfig(ctx context.Context) (string, error) {
	token := svc.token(ctx)
	if token == "" {
		return "", ErrNoToken
	}
	if svc.conf.ID == "" {
		return "", ErrNoGist
	}
	return token, nil
}

func (svc *Service) do(ctx context.Context, method, token string, body interface{}) (*gist, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encoding gist")
		}
		reqBody = bytes.NewReader(data)
	}

	url := strings.TrimRight(svc.conf.APIURL, "/") + "/gists/" + svc.conf.ID
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "building gist request")
	}
	req.Header.Set("Authorization", "token "+token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := svc.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "calling gist API")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrInvalidToken
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrGistNotFound
	case resp.StatusCode >= 300:
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, errors.Errorf("gist API: HTTP %d: %s", resp.StatusCode, apiErr.Message)
	}

	var g gist
	if err = json.NewDecoder(resp.Body).Decode(&g); err != nil {
		return nil, errors.Wrap(err, "decoding gist")
	}
	return &g, nil
}

func (svc *Service) acquire() error {
	if !svc.sem.TryAcquire(1) {
		return ErrSyncInProgress
	}
	return nil
}

func (svc *Service) recordSync(ctx context.Context, at time.Time) {
	if at.IsZero() {
		at = svc.now()
	}
	if err := svc.kv.Set(ctx, svc.lastSyncKey(), []byte(at.UTC().Format(time.RFC3339))); err != nil {
		svc.logger.Warn("recording last sync", err)
	}
}

// Push uploads the persisted collection to the gist and returns the remote update time.
func (svc *Service) Push(ctx context.Context) (time.Time, error) {
	token, err := svc.checkConfig(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if err = svc.acquire(); err != nil {
		return time.Time{}, err
	}
	defer svc.sem.Release(1)

	data, err := svc.kv.Get(ctx, svc.lessonsKey())
	if err == core.ErrKeyNotFound {
		data, err = []byte("[]"), nil
	}
	if err != nil {
		return time.Time{}, core.NewPersistenceError("reading lessons", svc.lessonsKey(), err)
	}
	if _, err = lesson.Decode(data); err != nil {
		return time.Time{}, errors.Wrap(err, "checking local data")
	}

	g, err := svc.do(ctx, http.MethodPatch, token, gistPatch{
		Description: "Tutorbook backup " + svc.now().Format("2006-01-02 15:04"),
		Files:       map[string]gistFile{svc.conf.Filename: {Content: string(data)}},
	})
	if err != nil {
		return time.Time{}, errors.Wrap(err, "pushing lessons")
	}
	svc.recordSync(ctx, g.UpdatedAt)
	svc.logger.Info("lessons pushed to gist", map[string]interface{}{"updatedAt": g.UpdatedAt})
	return g.UpdatedAt, nil
}

// Pull overwrites the persisted collection with the gist content, then reloads the Store.
// Remote data wins over local data. It returns the number of lessons loaded.
func (svc *Service) Pull(ctx context.Context) (int, error) {
	token, err := svc.checkConfig(ctx)
	if err != nil {
		return 0, err
	}
	if err = svc.acquire(); err != nil {
		return 0, err
	}
	defer svc.sem.Release(1)

	g, err := svc.do(ctx, http.MethodGet, token, nil)
	if err != nil {
		return 0, errors.Wrap(err, "pulling lessons")
	}
	file, ok := g.Files[svc.conf.Filename]
	if !ok || file.Content == "" {
		return 0, ErrRemoteFile
	}
	if _, err = lesson.Decode([]byte(file.Content)); err != nil {
		return 0, core.NewValidationError(errors.Wrap(err, "invalid remote data"))
	}
	if err = svc.kv.Set(ctx, svc.lessonsKey(), []byte(file.Content)); err != nil {
		return 0, core.NewPersistenceError("saving pulled lessons", svc.lessonsKey(), err)
	}
	svc.recordSync(ctx, g.UpdatedAt)

	n := svc.store.Reload(ctx)
	svc.logger.Info("lessons pulled from gist", map[string]interface{}{"count": n})
	return n, nil
}

// Info describes the remote copy. When the gist cannot be reached, it falls back to the
// local record of the last sync. A rejected token is always reported.
func (svc *Service) Info(ctx context.Context) (Info, error) {
	token, err := svc.checkConfig(ctx)
	if err == nil {
		var g *gist
		if g, err = svc.do(ctx, http.MethodGet, token, nil); err == nil {
			return Info{
				UpdatedAt: g.UpdatedAt,
				Size:      g.Files[svc.conf.Filename].Size,
				URL:       g.HTMLURL,
				Source:    SourceGist,
			}, nil
		}
		if errors.Cause(err) == ErrInvalidToken {
			return Info{}, err
		}
	}

	last, lerr := svc.kv.Get(ctx, svc.lastSyncKey())
	if lerr != nil {
		return Info{}, err
	}
	at, lerr := time.Parse(time.RFC3339, string(last))
	if lerr != nil {
		return Info{}, err
	}
	data, _ := svc.kv.Get(ctx, svc.lessonsKey())
	if data == nil {
		data = []byte("[]")
	}
	return Info{UpdatedAt: at, Size: len(data), Source: SourceLocal}, nil
}

// LastSync returns the time of the last successful push or pull, if any.
func (svc *Service) LastSync(ctx context.Context) (time.Time, bool) {
	data, err := svc.kv.Get(ctx, svc.lastSyncKey())
	if err != nil {
		return time.Time{}, false
	}
	at, err := time.Parse(time.RFC3339, string(data))
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}

// ClearData removes the lesson collection and the last sync record. The stored token is kept.
func (svc *Service) ClearData(ctx context.Context) error {
	for _, key := range []string{svc.lessonsKey(), svc.lastSyncKey()} {
		if err := svc.kv.Delete(ctx, key); err != nil {
			return core.NewPersistenceError("clearing data", key, err)
		}
	}
	svc.store.Reload(ctx)
	return nil
}
