package dashboard

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/presence-dashboard/internal/config"
	"github.com/heartmarshall/presence-dashboard/internal/domain"
)

const (
	fieldBrandColors  = "brand_colors"
	fieldCertificates = "certificates"
)

// LogoKinds are the logo slots of brand_assets.
var LogoKinds = []string{"primary", "secondary", "icon"}

var logoTypes = map[string]string{
	"image/png":     "png",
	"image/jpeg":    "jpg",
	"image/svg+xml": "svg",
	"image/webp":    "webp",
}

var certificateTypes = map[string]string{
	"application/pdf": "pdf",
	"image/png":       "png",
	"image/jpeg":      "jpg",
}

// Upload is a file received from the user.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ColorPatch changes some attributes of a brand color.
type ColorPatch struct {
	Name  *string `json:"name"`
	Hex   *string `json:"hex"`
	Usage *string `json:"usage"`
}

var brandCodec = Codec{
	Display: displayBrand,
	Encode:  encodeBrand,
}

func displayBrand(rec domain.Record) map[string]string {
	out := displayRecord(rec)

	if colors, err := domain.BrandColorsFromValue(rec[fieldBrandColors]); err == nil {
		parts := make([]string, 0, len(colors))
		for _, c := range colors {
			if c.Name == "" {
				parts = append(parts, c.Hex)
				continue
			}
			parts = append(parts, fmt.Sprintf("%s (%s)", c.Name, c.Hex))
		}
		out[fieldBrandColors] = strings.Join(parts, ", ")
	}
	if certs, err := domain.CertificatesFromValue(rec[fieldCertificates]); err == nil {
		names := make([]string, 0, len(certs))
		for _, c := range certs {
			names = append(names, c.Name)
		}
		out[fieldCertificates] = strings.Join(names, ", ")
	}
	return out
}

// encodeBrand keeps only colors that have both a name and a hex value.
func encodeBrand(payload, prev domain.Record) (domain.Record, error) {
	out, err := encodeDefault(payload, prev)
	if err != nil {
		return nil, err
	}
	colors, err := domain.BrandColorsFromValue(out[fieldBrandColors])
	if err != nil {
		return nil, domain.NewValidationError(fieldBrandColors, "could not be read")
	}
	value, err := domain.ToValue(domain.CompleteColors(colors))
	if err != nil {
		return nil, err
	}
	out[fieldBrandColors] = value
	return out, nil
}

// Brand owns the structured parts of brand_assets: the color list, logos
// and certificates. Colors are staged in the cache and saved with the
// section; uploads and removals are persisted immediately.
type Brand struct {
	log    *slog.Logger
	app    *App
	rows   rowStore
	blobs  blobStore
	cfg    config.StorageConfig
	editor *Editor

	afterSave func(ctx context.Context, d domain.Domain)
	now       func() time.Time

	// mu serializes read-modify-write of the color and certificate lists.
	mu sync.Mutex
}

func NewBrand(logger *slog.Logger, app *App, rows rowStore, blobs blobStore, cfg config.StorageConfig, editor *Editor) *Brand {
	return &Brand{
		log:    logger.With("component", "brand"),
		app:    app,
		rows:   rows,
		blobs:  blobs,
		cfg:    cfg,
		editor: editor,
		now:    time.Now,
	}
}

// Colors returns the staged brand colors.
func (b *Brand) Colors() ([]domain.BrandColor, error) {
	return domain.BrandColorsFromValue(b.app.Cache.Get(domain.DomainBrandAssets)[fieldBrandColors])
}

// AddColor appends a black, unnamed color and returns its index.
func (b *Brand) AddColor() (int, domain.BrandColor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	colors, err := b.Colors()
	if err != nil {
		return 0, domain.BrandColor{}, fmt.Errorf("dashboard.AddColor: %w", err)
	}
	c := domain.NewBrandColor()
	colors = append(colors, c)
	if err := b.stageColors(colors); err != nil {
		return 0, domain.BrandColor{}, fmt.Errorf("dashboard.AddColor: %w", err)
	}
	return len(colors) - 1, c, nil
}

// UpdateColor applies patch to the color at index. A new hex value is
// validated and its RGB form recomputed.
func (b *Brand) UpdateColor(ctx context.Context, index int, patch ColorPatch) (domain.BrandColor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	colors, err := b.Colors()
	if err != nil {
		return domain.BrandColor{}, fmt.Errorf("dashboard.UpdateColor: %w", err)
	}
	if index < 0 || index >= len(colors) {
		return domain.BrandColor{}, fmt.Errorf("dashboard.UpdateColor: color %d: %w", index, domain.ErrNotFound)
	}

	c := colors[index]
	if patch.Hex != nil {
		c, err = c.WithHex(strings.TrimSpace(*patch.Hex))
		if err != nil {
			err = fmt.Errorf("dashboard.UpdateColor: %w", err)
			reportError(ctx, b.log, b.app.Notes, uuid.Nil, domain.DomainBrandAssets, err)
			return domain.BrandColor{}, err
		}
	}
	if patch.Name != nil {
		c.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Usage != nil {
		c.Usage = strings.TrimSpace(*patch.Usage)
	}

	colors[index] = c
	if err := b.stageColors(colors); err != nil {
		return domain.BrandColor{}, fmt.Errorf("dashboard.UpdateColor: %w", err)
	}
	return c, nil
}

// RemoveColor drops the color at index. Removing the last color clears
// the stored list right away, since an empty list is never part of a save.
func (b *Brand) RemoveColor(ctx context.Context, index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	colors, err := b.Colors()
	if err != nil {
		return fmt.Errorf("dashboard.RemoveColor: %w", err)
	}
	if index < 0 || index >= len(colors) {
		return fmt.Errorf("dashboard.RemoveColor: color %d: %w", index, domain.ErrNotFound)
	}

	colors = slices.Delete(colors, index, index+1)
	if len(colors) > 0 {
		if err := b.stageColors(colors); err != nil {
			return fmt.Errorf("dashboard.RemoveColor: %w", err)
		}
		return nil
	}

	if err := b.persist(ctx, domain.Record{fieldBrandColors: []any{}}); err != nil {
		return fmt.Errorf("dashboard.RemoveColor: %w", err)
	}
	return nil
}

func (b *Brand) stageColors(colors []domain.BrandColor) error {
	value, err := domain.ToValue(colors)
	if err != nil {
		return err
	}
	b.app.Cache.SetField(domain.DomainBrandAssets, fieldBrandColors, value)
	b.editor.reconcile()
	return nil
}

// UploadLogo stores a logo of kind and records its public URL in
// brand_assets.logo_<kind>_url.
func (b *Brand) UploadLogo(ctx context.Context, kind string, up Upload) (string, error) {
	if !slices.Contains(LogoKinds, kind) {
		return "", fmt.Errorf("dashboard.UploadLogo: %w", domain.NewValidationError("logo", "kind must be primary, secondary or icon"))
	}
	ext, err := checkUpload(up, logoTypes, b.cfg.MaxLogoBytes, "logo")
	if err != nil {
		err = fmt.Errorf("dashboard.UploadLogo: %w", err)
		reportError(ctx, b.log, b.app.Notes, uuid.Nil, domain.DomainBrandAssets, err)
		return "", err
	}

	acc, err := b.app.Session.Current()
	if err != nil {
		err = fmt.Errorf("dashboard.UploadLogo: %w", err)
		reportError(ctx, b.log, b.app.Notes, uuid.Nil, domain.DomainBrandAssets, err)
		return "", err
	}

	blobPath := fmt.Sprintf("%s/logo_%s_%d.%s", acc.AccountID, kind, b.now().UnixMilli(), ext)
	publicURL, err := b.upload(ctx, b.cfg.LogoBucket, blobPath, up, true)
	if err != nil {
		err = fmt.Errorf("dashboard.UploadLogo: %w", err)
		reportError(ctx, b.log, b.app.Notes, acc.AccountID, domain.DomainBrandAssets, err)
		return "", err
	}

	if err := b.persist(ctx, domain.Record{logoField(kind): publicURL}); err != nil {
		b.removeBlob(ctx, b.cfg.LogoBucket, blobPath)
		return "", fmt.Errorf("dashboard.UploadLogo: %w", err)
	}

	b.app.Notes.Show("Logo uploaded successfully!", domain.NotificationSuccess)
	return publicURL, nil
}

// RemoveLogo deletes the logo of kind. The blob is removed on a best
// effort basis; the field is always cleared.
func (b *Brand) RemoveLogo(ctx context.Context, kind string) error {
	if !slices.Contains(LogoKinds, kind) {
		return fmt.Errorf("dashboard.RemoveLogo: %w", domain.NewValidationError("logo", "kind must be primary, secondary or icon"))
	}

	current := b.app.Cache.Get(domain.DomainBrandAssets).String(logoField(kind))
	if current == "" {
		return nil
	}
	if blobPath, ok := b.blobPath(b.cfg.LogoBucket, current); ok {
		b.removeBlob(ctx, b.cfg.LogoBucket, blobPath)
	}

	if err := b.persist(ctx, domain.Record{logoField(kind): nil}); err != nil {
		return fmt.Errorf("dashboard.RemoveLogo: %w", err)
	}
	b.app.Notes.Show("Logo removed", domain.NotificationSuccess)
	return nil
}

// Certificates returns the stored certificates.
func (b *Brand) Certificates() ([]domain.Certificate, error) {
	return domain.CertificatesFromValue(b.app.Cache.Get(domain.DomainBrandAssets)[fieldCertificates])
}

// UploadCertificate stores a certificate and appends it to
// brand_assets.certificates.
func (b *Brand) UploadCertificate(ctx context.Context, up Upload) (domain.Certificate, error) {
	ext, err := checkUpload(up, certificateTypes, b.cfg.MaxCertBytes, "certificate")
	if err != nil {
		err = fmt.Errorf("dashboard.UploadCertificate: %w", err)
		reportError(ctx, b.log, b.app.Notes, uuid.Nil, domain.DomainBrandAssets, err)
		return domain.Certificate{}, err
	}

	acc, err := b.app.Session.Current()
	if err != nil {
		err = fmt.Errorf("dashboard.UploadCertificate: %w", err)
		reportError(ctx, b.log, b.app.Notes, uuid.Nil, domain.DomainBrandAssets, err)
		return domain.Certificate{}, err
	}

	now := b.now()
	blobPath := fmt.Sprintf("%s/certificate_%d.%s", acc.AccountID, now.UnixMilli(), ext)
	publicURL, err := b.upload(ctx, b.cfg.CertificateBucket, blobPath, up, false)
	if err != nil {
		err = fmt.Errorf("dashboard.UploadCertificate: %w", err)
		reportError(ctx, b.log, b.app.Notes, acc.AccountID, domain.DomainBrandAssets, err)
		return domain.Certificate{}, err
	}

	name := strings.TrimSpace(path.Base(up.Filename))
	if name == "" || name == "." || name == "/" {
		name = "Certificate"
	}
	cert := domain.Certificate{
		ID:         uuid.NewString(),
		Name:       name,
		URL:        publicURL,
		Path:       blobPath,
		UploadedAt: now.UTC().Format(time.RFC3339),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	certs, err := b.Certificates()
	if err != nil {
		return domain.Certificate{}, fmt.Errorf("dashboard.UploadCertificate: %w", err)
	}
	if err := b.persistCertificates(ctx, append(certs, cert)); err != nil {
		b.removeBlob(ctx, b.cfg.CertificateBucket, blobPath)
		return domain.Certificate{}, fmt.Errorf("dashboard.UploadCertificate: %w", err)
	}

	b.app.Notes.Show("Certificate uploaded successfully!", domain.NotificationSuccess)
	return cert, nil
}

// RemoveCertificate deletes the certificate with id and its blob.
func (b *Brand) RemoveCertificate(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	certs, err := b.Certificates()
	if err != nil {
		return fmt.Errorf("dashboard.RemoveCertificate: %w", err)
	}
	i := slices.IndexFunc(certs, func(c domain.Certificate) bool { return c.ID == id })
	if i < 0 {
		return fmt.Errorf("dashboard.RemoveCertificate: certificate %s: %w", id, domain.ErrNotFound)
	}

	if certs[i].Path != "" {
		b.removeBlob(ctx, b.cfg.CertificateBucket, certs[i].Path)
	}
	if err := b.persistCertificates(ctx, slices.Delete(certs, i, i+1)); err != nil {
		return fmt.Errorf("dashboard.RemoveCertificate: %w", err)
	}

	b.app.Notes.Show("Certificate removed", domain.NotificationSuccess)
	return nil
}

func (b *Brand) persistCertificates(ctx context.Context, certs []domain.Certificate) error {
	value, err := domain.ToValue(certs)
	if err != nil {
		return err
	}
	return b.persist(ctx, domain.Record{fieldCertificates: value})
}

func (b *Brand) upload(ctx context.Context, bucket, blobPath string, up Upload, upsert bool) (string, error) {
	body := up.Body
	if up.Size > 0 {
		body = io.LimitReader(body, up.Size)
	}
	opts := domain.UploadOptions{
		ContentType:  mediaType(up.ContentType),
		CacheControl: b.cfg.CacheControl,
		Upsert:       upsert,
	}
	if err := b.blobs.Upload(ctx, bucket, blobPath, body, opts); err != nil {
		return "", err
	}
	return b.blobs.PublicURL(bucket, blobPath), nil
}

// persist writes fields straight to brand_assets, bypassing empty-value
// stripping so that removals reach the backend. The fields are mirrored
// into the cache; other staged edits are kept.
func (b *Brand) persist(ctx context.Context, fields domain.Record) error {
	acc, err := b.app.Session.Current()
	if err != nil {
		reportError(ctx, b.log, b.app.Notes, uuid.Nil, domain.DomainBrandAssets, err)
		return err
	}

	if _, err := b.rows.Upsert(ctx, domain.DomainBrandAssets, acc.AccountID, fields.Stamp(acc.AccountID, b.now())); err != nil {
		reportError(ctx, b.log, b.app.Notes, acc.AccountID, domain.DomainBrandAssets, err)
		return err
	}

	for k, v := range fields {
		b.app.Cache.SetField(domain.DomainBrandAssets, k, v)
	}
	b.editor.reconcile()
	if b.afterSave != nil {
		b.afterSave(ctx, domain.DomainBrandAssets)
	}
	return nil
}

func (b *Brand) removeBlob(ctx context.Context, bucket, blobPath string) {
	if err := b.blobs.Remove(ctx, bucket, blobPath); err != nil {
		b.log.WarnContext(ctx, "remove blob",
			slog.String("bucket", bucket),
			slog.String("path", blobPath),
			slog.String("error", err.Error()),
		)
	}
}

// blobPath recovers the storage path from a public URL issued for bucket.
func (b *Brand) blobPath(bucket, publicURL string) (string, bool) {
	prefix := b.blobs.PublicURL(bucket, "")
	if prefix == "" || !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	p := strings.TrimPrefix(publicURL, prefix)
	return p, p != ""
}

func logoField(kind string) string {
	return "logo_" + kind + "_url"
}

// checkUpload validates type and size before any I/O and returns the file
// extension for the stored blob.
func checkUpload(up Upload, types map[string]string, maxBytes int64, field string) (string, error) {
	ext, ok := types[mediaType(up.ContentType)]
	if !ok {
		allowed := make([]string, 0, len(types))
		for _, e := range types {
			allowed = append(allowed, e)
		}
		slices.Sort(allowed)
		return "", domain.NewValidationError(field, "file type must be one of "+strings.Join(allowed, ", "))
	}
	if up.Size <= 0 || up.Body == nil {
		return "", domain.NewValidationError(field, "file is empty")
	}
	if maxBytes > 0 && up.Size > maxBytes {
		return "", domain.NewValidationError(field, fmt.Sprintf("file must be at most %d MB", maxBytes/(1<<20)))
	}
	return ext, nil
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}
